// cmd/mintctl/mint.go
package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	mintapp "mintx/internal/application/mint"
	reqdom "mintx/internal/domain/mintRequest"
	"mintx/internal/domain/progress"
	"mintx/internal/platform/di"
)

func newMintCmd() *cobra.Command {
	var (
		d         reqdom.Draft
		imagePath string
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Pay the fee, upload content and create a token in one run",
		Example: `  mintctl mint --name "My Amazing Token" --symbol MAT --supply 1000000 \
    --image ./logo.png --description "..." --revoke-mint`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if imagePath != "" {
				img, err := readImage(imagePath)
				if err != nil {
					return err
				}
				d.Image = img
			}
			d.IncludeSocials = d.Socials != (reqdom.SocialLinks{})

			req, err := reqdom.Validate(d)
			if err != nil {
				if ve, ok := reqdom.AsValidationError(err); ok {
					for _, v := range ve.Violations {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", v.Field, v.Message)
					}
				}
				return err
			}

			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			c, err := di.NewContainer(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(cmd.Context()) }()

			q := c.Usecase.Quote(req)
			fmt.Fprintf(cmd.ErrOrStderr(), "fee: %s\n", q.Total)

			sink := progress.SinkFunc(func(s progress.State) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %-9s %s\n", s.Percent, s.Status, s.Message)
			})
			rep, runErr := c.Usecase.Submit(cmd.Context(), uuid.NewString(), req, sink)

			if err := printReport(cmd, rep); err != nil {
				return err
			}
			if runErr != nil {
				return errors.Wrapf(runErr, "mint failed (%s)", mintapp.KindOf(runErr))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&d.Name, "name", "", "token name (max 32 bytes)")
	f.StringVar(&d.Symbol, "symbol", "", "token symbol (max 10 bytes)")
	f.StringVar(&d.Decimals, "decimals", reqdom.DefaultDecimals, "decimal places (0-9)")
	f.StringVar(&d.InitialSupply, "supply", "", "initial supply in whole tokens")
	f.StringVar(&d.Description, "description", "", "token description")
	f.StringVar(&imagePath, "image", "", "path to the token image (max 5MB)")
	f.StringVar(&d.Socials.Website, "website", "", "project website")
	f.StringVar(&d.Socials.Twitter, "twitter", "", "twitter / x URL")
	f.StringVar(&d.Socials.Telegram, "telegram", "", "telegram URL")
	f.StringVar(&d.Socials.Discord, "discord", "", "discord URL")
	f.BoolVar(&d.RevokeMintAuthority, "revoke-mint", false, "revoke the mint authority after creation")
	f.BoolVar(&d.RevokeFreezeAuthority, "revoke-freeze", false, "revoke the freeze authority after creation")
	return cmd
}

func readImage(path string) (reqdom.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return reqdom.Image{}, errors.Wrapf(err, "read image %s", path)
	}
	return reqdom.Image{
		Data:        data,
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		FileName:    filepath.Base(path),
	}, nil
}

func printReport(cmd *cobra.Command, rep mintapp.Report) error {
	out := cmd.OutOrStdout()
	if printJSON {
		b, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}
	fmt.Fprintf(out, "request:  %s\noutcome:  %s\nfee paid: %s\n", rep.RequestID, rep.Outcome, rep.FeePaid)
	if rep.Result != nil {
		fmt.Fprintf(out, "mint:     %s\naccount:  %s\nmetadata: %s\n",
			rep.Result.MintAddress, rep.Result.TokenAccountAddress, rep.Result.MetadataURI)
	}
	return nil
}
