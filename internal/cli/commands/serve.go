package commands

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/moneta/moneta/internal/cliopt"
	"github.com/moneta/moneta/internal/cliutil"
	"github.com/moneta/moneta/internal/server"
)

func RunServe(g cliopt.GlobalOptions, argv []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(g.Stderr)
	var addr string
	fs.StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cfg, logger, err := cliutil.OpenService(ctx, g)
	if err != nil {
		fmt.Fprintln(g.Stderr, err)
		return 1
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error().Err(err).Msg("close data sources")
		}
	}()

	if addr != "" {
		cfg.Server.Addr = addr
	}
	logger.Info().Int("topics", len(svc.Topics())).Strs("data_sources", svc.DataSources()).Msg("moneta ready")

	if err := server.New(svc, cfg.Server, logger).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server failed")
		return 1
	}
	return 0
}
