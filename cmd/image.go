package cmd

import (
	"encoding/json"
	"strings"

	"github.com/sitesmith/sitesmith/internal/models"
	"github.com/spf13/cobra"
)

func newImageCmd(configPath *string) *cobra.Command {
	var imageID, page, folder string

	cmd := &cobra.Command{
		Use:   "image QUERY",
		Short: "Resolve a single stock photo for a query",
		Long: `Runs the image relevance pipeline for QUERY and prints the resolution as JSON:
the chosen image, the refined query and whether the image was relevant, a
fallback or empty.`,
		Example: `  sitesmith image "fresh bread" --page menu --folder bakery
  sitesmith image "mountain lake" --id 7`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			fetcher, _ := newFetcher(cfg)
			res := fetcher.Resolve(cmd.Context(), models.ImageQuery{
				Query:      strings.Join(args, " "),
				PageName:   page,
				FolderName: folder,
			}, imageID)

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(res)
		},
	}

	cmd.Flags().StringVar(&imageID, "id", "", "Image id; a numeric id selects the result page")
	cmd.Flags().StringVar(&page, "page", "", "Page name used as query context")
	cmd.Flags().StringVar(&folder, "folder", "", "Folder name used as query context")

	return cmd
}
