// cmd/mintctl/fee.go
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"mintx/internal/domain/fee"
)

func newFeeCmd() *cobra.Command {
	var revokeMint, revokeFreeze bool
	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Show the service fee for a submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := fee.NewQuote(revokeMint, revokeFreeze)
			out := cmd.OutOrStdout()
			if printJSON {
				b, err := json.MarshalIndent(q, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}
			fmt.Fprintf(out, "base fee:                 %s\n", q.Base)
			fmt.Fprintf(out, "revoke mint authority:    %s\n", q.MintSurcharge)
			fmt.Fprintf(out, "revoke freeze authority:  %s\n", q.FreezeSurcharge)
			fmt.Fprintf(out, "total:                    %s\n", q.Total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&revokeMint, "revoke-mint", false, "include the mint authority revocation surcharge")
	cmd.Flags().BoolVar(&revokeFreeze, "revoke-freeze", false, "include the freeze authority revocation surcharge")
	return cmd
}
