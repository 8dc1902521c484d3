package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/koustreak/bucketgallery/internal/imagestore"
)

func newUploadCmd(a *app) *cobra.Command {
	var (
		key   string
		quiet bool
	)
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload an image to the bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			name := filepath.Base(args[0])
			bar := progressbar.NewOptions64(info.Size(),
				progressbar.OptionSetDescription(name),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionThrottle(100),
				progressbar.OptionSetVisibility(!quiet),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
			body := progressbar.NewReader(f, bar)

			written, err := client.UploadImage(ctx, imagestore.Upload{
				Filename: name,
				Size:     info.Size(),
				Body:     &body,
			}, key)
			if err != nil {
				return err
			}
			// The object is already stored at this point.
			if err := bar.Finish(); err != nil {
				a.log.WarnWith("progress bar failed", err, map[string]interface{}{"key": written})
			}

			fmt.Fprintln(cmd.OutOrStdout(), written)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "object key (default: uploads/<millis>-<file name>)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}
