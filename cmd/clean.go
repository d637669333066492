package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sitesmith/sitesmith/internal/htmlclean"
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "clean [FILE]",
		Short: "Normalize model output into a complete HTML document",
		Long: `Strips code fences, comments and explanatory paragraphs from model output and
repairs the document shell (doctype, head, body and title). Reads FILE, or
standard input when no file is given, and writes the result to standard output.`,
		Example: `  sitesmith clean raw_output.txt --title contact
  cat raw_output.txt | sitesmith clean`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 {
				raw, err = os.ReadFile(args[0])
				if title == "" {
					title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				}
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			if title == "" {
				title = "index"
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), htmlclean.Clean(string(raw), title))
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Page name used for the <title> (defaults to the file name)")

	return cmd
}
