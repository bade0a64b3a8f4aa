package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	accountapp "github.com/dwikikusuma/farmgate/internal/account/app"
	accountfile "github.com/dwikikusuma/farmgate/internal/account/infra/file"
	accountremote "github.com/dwikikusuma/farmgate/internal/account/infra/remote"

	cartapp "github.com/dwikikusuma/farmgate/internal/cart/app"
	cartadapter "github.com/dwikikusuma/farmgate/internal/cart/infra/adapter"
	cartfile "github.com/dwikikusuma/farmgate/internal/cart/infra/file"
	cartpg "github.com/dwikikusuma/farmgate/internal/cart/infra/postgres"
	carttransport "github.com/dwikikusuma/farmgate/internal/cart/transport"

	catalogapp "github.com/dwikikusuma/farmgate/internal/catalog/app"
	catalogremote "github.com/dwikikusuma/farmgate/internal/catalog/infra/remote"
	"github.com/dwikikusuma/farmgate/internal/catalog/infra/seed"
	catalogtransport "github.com/dwikikusuma/farmgate/internal/catalog/transport"

	checkoutapp "github.com/dwikikusuma/farmgate/internal/checkout/app"
	checkoutdomain "github.com/dwikikusuma/farmgate/internal/checkout/domain"
	checkoutadapter "github.com/dwikikusuma/farmgate/internal/checkout/infra/adapter"
	checkouttransport "github.com/dwikikusuma/farmgate/internal/checkout/transport"

	orderapp "github.com/dwikikusuma/farmgate/internal/order/app"
	orderremote "github.com/dwikikusuma/farmgate/internal/order/infra/remote"

	paymentapp "github.com/dwikikusuma/farmgate/internal/payment/app"
	paymentremote "github.com/dwikikusuma/farmgate/internal/payment/infra/remote"

	"github.com/dwikikusuma/farmgate/internal/gateway"
	"github.com/dwikikusuma/farmgate/pkg/config"
	"github.com/dwikikusuma/farmgate/pkg/httpclient"
	"github.com/dwikikusuma/farmgate/pkg/localstore"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/metrics"
	"github.com/dwikikusuma/farmgate/pkg/notify"
	"github.com/dwikikusuma/farmgate/pkg/shutdown"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("gateway", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a config file (yaml, toml or json)")
	flags.Int("port", 8080, "HTTP listen port")
	flags.String("backend", "", "marketplace backend base URL")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(2)
	}

	log := logger.New(logger.Options{
		Service:   "gateway",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
	})

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("gateway stopped", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bye")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()
	feed := notify.NewFeed(64)

	docs, err := localstore.Open(cfg.StateDir)
	if err != nil {
		return err
	}
	defer docs.Close()

	// Backend clients read the account token on every request, and the
	// account service registers through the transactional client.
	var acct *accountapp.Service
	token := httpclient.WithToken(func() string {
		if acct == nil {
			return ""
		}
		return acct.Token()
	})
	backend, err := httpclient.New(cfg.BackendURL, httpclient.WithTimeout(cfg.CatalogTimeout), token)
	if err != nil {
		return err
	}
	// Orders, payments and registration are bounded by ORDER_TIMEOUT.
	txBackend, err := httpclient.New(cfg.BackendURL, httpclient.WithTimeout(cfg.OrderTimeout), token)
	if err != nil {
		return err
	}
	acct = accountapp.NewService(accountremote.NewAuthClient(txBackend),
		accountapp.WithLogger(log),
		accountapp.WithStore(accountfile.NewCredentialStore(docs)),
	)
	acct.Restore(ctx)

	if err := seed.Err(); err != nil {
		log.Warn("bundled catalog unavailable", slog.Any("err", err))
	}
	catalog := catalogapp.NewService(catalogremote.NewProductClient(backend), seed.Catalog{},
		catalogapp.WithFailureThreshold(cfg.CatalogFailureThreshold),
		catalogapp.WithTimeout(cfg.CatalogTimeout),
		catalogapp.StartInFallback(cfg.StartInFallback()),
		catalogapp.WithLogger(log),
		catalogapp.WithMetrics(m),
		catalogapp.WithNotices(feed),
	)

	store, ready, closeStore, err := openCartStore(ctx, cfg, docs)
	if err != nil {
		return err
	}
	defer closeStore()

	ledger := cartapp.NewLedger(
		cartapp.WithStore(store, cfg.CartKey),
		cartapp.WithLogger(log),
		cartapp.WithMetrics(m),
	)
	ledger.Restore(ctx)

	payClient := paymentremote.NewPaymentClient(txBackend)
	checkout := checkoutapp.NewService(
		checkoutadapter.NewLedgerReader(ledger),
		orderapp.NewService(orderremote.NewOrderClient(txBackend)),
		paymentapp.NewService(payClient, paymentapp.WithLogger(log)),
		paymentapp.NewPoller(payClient,
			paymentapp.WithDefaults(cfg.PaymentPollAttempts, cfg.PaymentPollInterval),
			paymentapp.WithPollLogger(log),
			paymentapp.WithPollMetrics(m),
		),
		checkoutapp.WithFeePolicy(checkoutdomain.FeePolicy{Flat: cfg.DeliveryFee, FreeOver: cfg.FreeDeliveryOver}),
		checkoutapp.WithAccounts(acct),
		// Order, push and registration each get one client timeout.
		checkoutapp.WithSubmitTimeout(3*cfg.OrderTimeout),
		checkoutapp.WithLogger(log),
		checkoutapp.WithMetrics(m),
		checkoutapp.WithNotices(feed),
	)

	handler := gateway.NewHandler(gateway.Options{
		Routes: []gateway.Routes{
			catalogtransport.NewHandler(catalog, log),
			carttransport.NewHandler(ledger, cartadapter.NewCatalogItemResolver(catalog), log),
			checkouttransport.NewHandler(checkout, log),
		},
		Notices: feed,
		Metrics: m,
		Ready:   ready,
		Log:     log,
	})

	srv := gateway.NewServer(fmt.Sprintf(":%d", cfg.HTTPPort), handler)
	return gateway.Serve(ctx, srv, log)
}

func openCartStore(ctx context.Context, cfg config.Config, docs *localstore.Store) (cartapp.Store, []gateway.ReadinessCheck, func(), error) {
	if cfg.CartStore != config.CartStorePostgres {
		return cartfile.NewCartStore(docs), nil, func() {}, nil
	}

	db, err := cartpg.Open(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, err
	}
	repo := cartpg.NewCartRepo(db)
	if err := repo.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, nil, fmt.Errorf("migrate cart store: %w", err)
	}

	ready := []gateway.ReadinessCheck{sqlDB.PingContext}
	return repo, ready, func() { _ = sqlDB.Close() }, nil
}
