package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FFmpeg converts audio by shelling out to the ffmpeg binary
type FFmpeg struct {
	Path string
}

// NewFFmpeg returns a converter using the binary at path, or "ffmpeg" from PATH.
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

func (f *FFmpeg) ToWAV(ctx context.Context, src, dst string) error {
	bin, err := exec.LookPath(f.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeAudio, err)
	}

	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", src,
		"-ac", "1",
		"-ar", "16000",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		dst,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if strings.Contains(msg, "Invalid data found") {
			return fmt.Errorf("%w: %s", ErrDecodeAudio, msg)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, msg)
	}
	return nil
}
