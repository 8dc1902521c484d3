package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/bucketgallery/internal/configform"
	"github.com/koustreak/bucketgallery/internal/imagestore"
)

func newConfigureCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Enter and save the bucket credentials",
		Long: `Prompts for the access key, secret key, region and bucket name and saves
them to the credential file. Press enter to keep a stored value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stored, err := a.creds.Load(ctx)
			if err != nil {
				return err
			}

			form := configform.FromCredentials(stored)
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			for _, field := range configform.Fields {
				v, err := p.ask(field.Label, form.Get(field.Name), field.Secret)
				if err != nil {
					return err
				}
				form.Set(field.Name, v)
			}

			creds, err := configform.Submit(ctx, a.creds, form)
			if err != nil {
				var verr *configform.ValidationError
				if errors.As(err, &verr) {
					return verr
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials for bucket %q to %s\n", creds.BucketName, a.cfg.Credentials.Path)

			if !check {
				return nil
			}
			client := imagestore.New(ctx, &creds, a.clientOptions())
			defer client.Close()
			if err := client.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bucket %q is reachable\n", creds.BucketName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "verify the bucket is reachable after saving")
	return cmd
}
