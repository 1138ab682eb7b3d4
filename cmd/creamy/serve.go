package main

import (
	"github.com/spf13/cobra"

	"github.com/japaniel/creamy/pkg/exercise"
	"github.com/japaniel/creamy/pkg/server"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			ig, err := a.ingester(ctx)
			if err != nil {
				return err
			}
			svc, analyzer, err := a.analysisService(ctx)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			s := server.New(server.Deps{
				Uploads:        ig.Uploads,
				Images:         ig.Images,
				Ingester:       ig,
				Analysis:       svc,
				Exercises:      exercise.NewGenerator(analyzer),
				Logger:         a.logger,
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
				CORSOrigin:     a.cfg.Server.CORSOrigin,
			})
			return s.ListenAndServe(ctx, addr, a.cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
