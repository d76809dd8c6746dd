// cmd/mintctl/root.go
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mintx/internal/infra/config"
	"mintx/internal/infra/logging"
)

var printJSON bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mintctl",
		Short: "Operate the MintX token minting service from the command line",
		Long: `mintctl runs the same mint workflow as the HTTP API, synchronously.

Configuration is read from the same environment variables as the server
(SOLANA_RPC_URL, FEE_ADDRESS, SOLANA_KEYPAIR_PATH, ARWEAVE_BASE_URL, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&printJSON, "json", false, "print results as JSON")

	cmd.AddCommand(
		newMintCmd(),
		newFeeCmd(),
		newKeygenCmd(),
		newUploaderCmd(),
	)
	return cmd
}

// loadRuntime は server と同じ設定とロガーを用意します（CLI は console 出力）。
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
