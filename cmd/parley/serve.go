package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/parley/internal/api"
	"github.com/samcharles93/parley/internal/logger"
	"github.com/samcharles93/parley/internal/seq2seq"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the REST API (Responses API)",
		Flags: concat(modelFlags(), searchFlags(), corpusFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (default: server_address from config)",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ServerAddress
			}
			v, err := loadVocab(cfg, log)
			if err != nil {
				return err
			}
			m := newModel(cfg, v, log)

			sc := api.DefaultServiceConfig()
			sc.BeamWidth = cfg.BeamWidth
			sc.MaxSteps = cfg.MaxSteps
			if sc.BeamWidth > sc.MaxBeamWidth {
				sc.MaxBeamWidth = sc.BeamWidth
			}
			if sc.MaxSteps > seq2seq.DefaultMaxSteps {
				log.Warn("max_steps above the API limit, clamping", "max_steps", sc.MaxSteps, "limit", seq2seq.DefaultMaxSteps)
				sc.MaxSteps = seq2seq.DefaultMaxSteps
			}
			service := api.NewResponseService(m, v, sc).WithLogger(log.WithGroup("api"))
			server := api.NewServer(api.NewResponseStore(), service)

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "beam_width", sc.BeamWidth, "max_steps", sc.MaxSteps)
			start := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return start.Start(ctx, e)
		},
	}
}
