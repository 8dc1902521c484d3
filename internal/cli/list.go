package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/koustreak/bucketgallery/internal/gallery"
)

func newListCmd(a *app) *cobra.Command {
	var showURLs bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the images in the bucket, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			entries, err := client.ListImages(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No images found in bucket %q\n", client.Bucket())
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			header := "KEY\tSIZE\tMODIFIED"
			if showURLs {
				header += "\tURL"
			}
			fmt.Fprintln(tw, header)
			for _, e := range entries {
				line := fmt.Sprintf("%s\t%s\t%s", e.Key, gallery.FormatSize(e.Size), humanize.Time(e.LastModified))
				if showURLs {
					line += "\t" + e.URL
				}
				fmt.Fprintln(tw, line)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d images; URLs valid until %s\n", len(entries), entries[0].ExpiresAt.Local().Format("15:04:05"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showURLs, "urls", false, "print the signed URL of each image")
	return cmd
}
