package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpadp "microlend/internal/adapter/http"
	"microlend/internal/adapter/ledger/evm"
	idem "microlend/internal/adapter/middleware"
	"microlend/internal/adapter/notify"
	"microlend/internal/adapter/pricefeed"
	"microlend/internal/adapter/repository/mysql"
	"microlend/internal/config"
	"microlend/internal/domain/journal"
	"microlend/internal/domain/token"
	"microlend/internal/infrastructure/cache"
	"microlend/internal/infrastructure/db"
	"microlend/internal/infrastructure/logger"
	"microlend/internal/infrastructure/metrics"
	"microlend/internal/infrastructure/scheduler"
	appuc "microlend/internal/usecase/application"
	"microlend/internal/usecase/funding"
	"microlend/internal/usecase/incentive"
	"microlend/internal/usecase/lend"
	"microlend/internal/usecase/sequence"
	"microlend/internal/usecase/swap"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("microlend-api", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ledger gateway
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	backend, err := evm.Dial(dialCtx, cfg.RPCURL)
	cancel()
	if err != nil {
		log.Fatal("dial rpc", zap.String("url", cfg.RPCURL), zap.Error(err))
	}
	defer backend.Close()

	signer, err := evm.Signer(cfg.SignerKey, cfg.ChainID)
	if err != nil {
		log.Fatal("load signer", zap.Error(err))
	}
	client := evm.NewClient(backend, signer)
	if client.ReadOnly() {
		log.Warn("no SIGNER_KEY configured; write routes will return 503")
	}
	confirmer := evm.NewConfirmer(backend, cfg.ConfirmationPoll(), log)

	loans := client.LoanRegistry(cfg.Addr(cfg.LoanRegistryAddress))
	apps := client.ApplicationRegistry(cfg.Addr(cfg.ApplicationRegistryAddress))
	tokens := client.TokenStore()
	router := client.Router(cfg.Addr(cfg.RouterAddress))
	addrs := token.Addresses{
		WrappedNative: cfg.Addr(cfg.WrappedNativeAddress),
		StableUSD:     cfg.Addr(cfg.FundingTokenAddress),
		StableEUR:     cfg.Addr(cfg.StableEURAddress),
	}
	caller := client.From()

	// sequence journal
	var runs journal.Repository
	var journalRepo *mysql.JournalRepository
	if cfg.JournalEnabled {
		gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
		if err != nil {
			log.Fatal("open mysql", zap.Error(err))
		}
		if err := db.Migrate(gdb); err != nil {
			log.Fatal("migrate journal", zap.Error(err))
		}
		journalRepo = mysql.NewJournalRepository(gdb)
		runs = journalRepo
	}
	runner := sequence.NewRunner(runs, m, log, sequence.WithTimeout(cfg.SequenceTimeout()))

	// usecases
	fundingUC := funding.NewUsecase(loans,
		funding.WithLogger(log),
		funding.WithMetrics(m),
		funding.WithConcurrency(cfg.ListConcurrency),
	)
	lendUC := lend.NewUsecase(fundingUC, loans, tokens, confirmer, runner, addrs.StableUSD, caller)

	appOpts := []appuc.Option{
		appuc.WithLogger(log),
		appuc.WithMetrics(m),
		appuc.WithConcurrency(cfg.ListConcurrency),
	}
	if cfg.NotifyWebhookURL != "" {
		appOpts = append(appOpts, appuc.WithNotifier(notify.NewWebhook(nil, cfg.NotifyWebhookURL, cfg.NotifyAccessKey)))
	}
	appUC := appuc.NewUsecase(apps, loans, confirmer, runner, addrs.StableUSD, caller, appOpts...)
	incentiveUC := incentive.NewUsecase(loans, log)

	feed := swap.NewFeed(pricefeed.NewCoinGecko(nil, cfg.PriceFeedURL), m)
	swapUC := swap.NewUsecase(feed, tokens, router, addrs, confirmer, runner, caller)

	// reference price refresh
	sched := scheduler.New(log, 20*time.Second)
	refresh := func(ctx context.Context) error {
		err := feed.Refresh(ctx)
		if err != nil {
			log.Warn("price refresh failed; using default", zap.Error(err))
		}
		return nil
	}
	_ = refresh(ctx)
	if err := sched.Every(cfg.PriceRefreshSpec, "price-refresh", refresh); err != nil {
		log.Fatal("schedule price refresh", zap.String("spec", cfg.PriceRefreshSpec), zap.Error(err))
	}
	if journalRepo != nil && cfg.JournalRetention() > 0 {
		err := sched.Every("@daily", "journal-prune", func(ctx context.Context) error {
			n, err := journalRepo.Prune(ctx, time.Now().UTC().Add(-cfg.JournalRetention()))
			if err == nil && n > 0 {
				log.Info("journal pruned", zap.Int64("runs", n))
			}
			return err
		})
		if err != nil {
			log.Fatal("schedule journal prune", zap.Error(err))
		}
	}
	sched.Start()

	// idempotency store
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal("open redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers := httpadp.Handlers{
		Health:       httpadp.NewHandler(client.ReadOnly()),
		Funding:      httpadp.NewFundingHandler(fundingUC, lendUC),
		Applications: httpadp.NewApplicationHandler(appUC),
		Accounts:     httpadp.NewAccountHandler(swapUC, incentiveUC),
	}
	if journalRepo != nil {
		handlers.Journal = httpadp.NewJournalHandler(journalRepo)
	}
	httpadp.Register(e, handlers, idem.Idempotency(rdb, cfg.IdempotencyTTL(), log, idem.WithAccount(caller)))

	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", zap.String("addr", addr), zap.String("caller", caller.Hex()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
}
