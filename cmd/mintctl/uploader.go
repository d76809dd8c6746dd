// cmd/mintctl/uploader.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"mintx/internal/platform/di"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func newUploaderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploader",
		Short: "Inspect the configured content uploader",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the uploader (Irys gateway or GCS bucket) is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			c, err := di.NewContainer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(context.Background()) }()

			p, ok := c.Uploader.(pinger)
			if !ok {
				return errors.Newf("uploader %q has no health check", cfg.Uploader)
			}
			if err := p.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploader %s: ok\n", cfg.Uploader)
			return nil
		},
	})
	return cmd
}
