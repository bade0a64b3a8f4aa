// Command catalog serves the bundled product dataset over the backend's
// /products contract, optionally failing a share of requests, so the
// gateway's fallback path can be exercised without the real backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dwikikusuma/farmgate/internal/catalog/infra/seed"
	catalogtransport "github.com/dwikikusuma/farmgate/internal/catalog/transport"
	"github.com/dwikikusuma/farmgate/internal/gateway"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/shutdown"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("catalog", pflag.ExitOnError)
	port := flags.Int("port", 5000, "HTTP listen port")
	failureRate := flags.Float64("failure-rate", 0, "share of requests answered with 503, between 0 and 1")
	logLevel := flags.String("log-level", "info", "debug, info, warn or error")
	_ = flags.Parse(os.Args[1:])

	log := logger.New(logger.Options{Service: "catalog-dev", Env: "dev", Level: *logLevel, Format: "text"})

	if *failureRate < 0 || *failureRate > 1 {
		log.Error("failure-rate must be between 0 and 1", slog.Float64("failure_rate", *failureRate))
		os.Exit(2)
	}
	if err := seed.Err(); err != nil {
		log.Error("bundled catalog unavailable", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	handler := gateway.NewHandler(gateway.Options{
		Routes: []gateway.Routes{catalogtransport.NewDevServer(seed.Catalog{}, *failureRate, log)},
		Log:    log,
	})
	srv := gateway.NewServer(fmt.Sprintf(":%d", *port), handler)

	if err := gateway.Serve(ctx, srv, log); err != nil {
		log.Error("catalog stopped", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bye")
}
