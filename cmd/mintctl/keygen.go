// cmd/mintctl/keygen.go
package main

import (
	"fmt"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"mintx/internal/infra/solana"
)

func newKeygenCmd() *cobra.Command {
	var (
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signer keypair file (solana-keygen JSON format)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			if _, err := os.Stat(out); err == nil && !force {
				return errors.Newf("%s already exists (use --force to overwrite)", out)
			}

			acc := types.NewAccount()
			data, err := solana.EncodeKeypairJSON(acc)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return errors.Wrapf(err, "write %s", out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nkeypair: %s\n", acc.PublicKey.ToBase58(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write the keypair JSON")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
