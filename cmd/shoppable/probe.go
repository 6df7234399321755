package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/shoppable/internal/config"
	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/source"
)

func newProbeCmd(cfg *config.Config) *cobra.Command {
	var retimeOut string

	cmd := &cobra.Command{
		Use:   "probe [video]",
		Short: "Show video metadata and check it against the content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cfg.VideoPath
			if len(args) == 1 {
				in = args[0]
			}
			if in == "" {
				return errors.New("no video given")
			}

			meta, err := source.Prober{Path: cfg.FFprobePath}.Probe(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("[*] %s: %dx%d %s, %.2f fps, %.3fs\n", in, meta.Width, meta.Height, meta.Codec, meta.FPS, meta.Duration)

			sv, _, err := loadContent(cfg)
			if err != nil {
				return err
			}
			authored := sv.Video.Duration
			fmt.Printf("[*] Content duration: %.3fs (difference %+.3fs)\n", authored, meta.Duration-authored)

			if retimeOut == "" {
				return nil
			}
			retimed := content.NewDirector(meta.Duration, cfg.FPS).Retime(sv)
			if err := content.Write(retimed, retimeOut); err != nil {
				return err
			}
			fmt.Printf("[*] Retimed content written to %s\n", retimeOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.VideoPath, "video", cfg.VideoPath, "Video file")
	cmd.Flags().StringVar(&retimeOut, "retime", "", "Write the content retimed to the video duration here")
	return cmd
}
