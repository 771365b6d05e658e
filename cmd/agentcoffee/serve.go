package main

import (
	"fmt"

	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/Protocol-Lattice/agentcoffee/pkg/metrics"
	"github.com/Protocol-Lattice/agentcoffee/pkg/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func ServeCmd(flags *globalFlags) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			extra := map[string]any{}
			if cmd.Flags().Changed("host") {
				extra["server.host"] = host
			}
			if cmd.Flags().Changed("port") {
				extra["server.port"] = port
			}
			cfg, log, err := flags.load(cmd, extra)
			if err != nil {
				return err
			}
			ctx := logger.ContextWithLogger(cmd.Context(), log)

			recorder := metrics.NewRecorder()
			a, err := buildApp(ctx, cfg, recorder)
			if err != nil {
				return err
			}
			defer a.Close()

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(a.agent, server.Options{
				Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
				RequestTimeout: cfg.Server.RequestTimeout,
				Concurrency:    cfg.Server.Concurrency,
				Metrics:        recorder.Handler(),
				Logger:         log,
			})
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	return cmd
}
