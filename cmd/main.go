package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/wallet/internal/config"
	"github.com/tinoosan/wallet/internal/errs"
	httpapi "github.com/tinoosan/wallet/internal/httpapi/v1"
	"github.com/tinoosan/wallet/internal/ledger"
	"github.com/tinoosan/wallet/internal/snapshot"
	"github.com/tinoosan/wallet/internal/storage/file"
	"github.com/tinoosan/wallet/internal/storage/leveldb"
	"github.com/tinoosan/wallet/internal/storage/memory"
	pgstore "github.com/tinoosan/wallet/internal/storage/postgres"
	"github.com/tinoosan/wallet/internal/storage/redis"
	"github.com/tinoosan/wallet/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	store := memory.New()

	region, ready, closeFn, err := openRegion(ctx, cfg)
	if err != nil {
		logger.Error("failed to open snapshot backend", "backend", cfg.SnapshotBackend, "err", err)
		os.Exit(1)
	}
	defer closeFn()
	logger.Info("snapshot backend", "backend", cfg.SnapshotBackend)

	var adapter *snapshot.Adapter
	var saver httpapi.SnapshotSaver
	if region != nil {
		adapter = snapshot.NewAdapter(store, region, logger)
		saver = adapter
		if !restore(ctx, cfg, adapter, logger) {
			closeFn()
			os.Exit(1)
		}
	}

	if cfg.DevSeed && store.Len() == 0 {
		seed, err := seedDev(ctx, store)
		if err != nil {
			logger.Error("dev seed failed", "err", err)
		} else {
			logger.Info("DEV seed", "identities", []string{seed[0].Identity.String(), seed[1].Identity.String()})
			printDevSeedBanner(cfg.DisplayCurrency, seed)
		}
	}

	admins, _ := cfg.Admins()
	opts := httpapi.Options{
		Admins:         admins,
		Ready:          ready,
		Currency:       cfg.DisplayCurrency,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}
	if cfg.JWTSecret != "" {
		opts.Auth = httpapi.JWTAuth{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience}
	} else {
		logger.Warn("JWT_HS256_SECRET not set; trusting " + httpapi.CallerHeader + " from the gateway")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.New(store, store, saver, opts, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	var runWG sync.WaitGroup
	defer cancelRun()
	if adapter != nil && cfg.SnapshotInterval > 0 {
		runWG.Add(1)
		go func() {
			defer runWG.Done()
			adapter.Run(runCtx, cfg.SnapshotInterval)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("wallet service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	cancelRun()
	runWG.Wait()

	// Final save runs after the listener has drained so no mutation is lost.
	if adapter != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := adapter.Save(saveCtx); err != nil {
			logger.Error("final snapshot failed", "err", err)
		}
	}
}

// openRegion selects the snapshot backend. A nil region means persistence is off.
func openRegion(ctx context.Context, cfg config.Config) (snapshot.Region, []httpapi.ReadyChecker, func(), error) {
	noop := func() {}
	switch cfg.SnapshotBackend {
	case config.BackendNone:
		return nil, nil, noop, nil
	case config.BackendFile:
		r, err := file.Open(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, noop, err
		}
		return r, nil, noop, nil
	case config.BackendLevelDB:
		r, err := leveldb.Open(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, noop, err
		}
		return r, nil, func() { _ = r.Close() }, nil
	case config.BackendSQLite:
		r, err := sqlite.Open(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, noop, err
		}
		return r, []httpapi.ReadyChecker{r}, func() { _ = r.Close() }, nil
	case config.BackendPostgres:
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, noop, fmt.Errorf("migrate: %w", err)
		}
		return pg, []httpapi.ReadyChecker{pg}, pg.Close, nil
	case config.BackendRedis:
		r, err := redis.Open(ctx, cfg.RedisAddr, cfg.RedisKey)
		if err != nil {
			return nil, nil, noop, err
		}
		return r, []httpapi.ReadyChecker{r}, func() { _ = r.Close() }, nil
	default:
		return nil, nil, noop, fmt.Errorf("unknown backend %q", cfg.SnapshotBackend)
	}
}

// restore loads the last snapshot before serving. It returns false when the
// process must not start.
func restore(ctx context.Context, cfg config.Config, adapter *snapshot.Adapter, logger *slog.Logger) bool {
	n, err := adapter.Restore(ctx)
	switch {
	case err == nil:
		logger.Info("ledger restored", "accounts", n)
		return true
	case errors.Is(err, snapshot.ErrNoSnapshot):
		logger.Info("no snapshot found; starting with an empty ledger")
		return true
	case errors.Is(err, errs.ErrCorruptSnapshot) && cfg.AllowFreshOnCorrupt:
		logger.Error("snapshot is corrupt; starting with an empty ledger", "err", err)
		return true
	case errors.Is(err, errs.ErrCorruptSnapshot):
		logger.Error("snapshot is corrupt; set LEDGER_ALLOW_FRESH_ON_CORRUPT to start empty", "err", err)
		return false
	default:
		logger.Error("snapshot restore failed", "err", err)
		return false
	}
}

// seedDev registers two demo identities so the API can be tried right away.
func seedDev(ctx context.Context, store *memory.Store) ([]ledger.Account, error) {
	seed := []ledger.Account{
		{Identity: uuid.New(), Balance: 10_000},
		{Identity: uuid.New(), Balance: 5_000},
	}
	for _, a := range seed {
		if _, err := store.Register(ctx, a.Identity, a.Balance); err != nil {
			return nil, err
		}
	}
	return seed, nil
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(currency string, seed []ledger.Account) {
	fmt.Println("==================== DEV SEED ====================")
	for i, a := range seed {
		fmt.Printf("identity_%d: %s (%s)\n", i+1, a.Identity.String(), ledger.Display(currency, a.Balance))
	}
	fmt.Printf("header: %s: <identity>\n", httpapi.CallerHeader)
	fmt.Println("==================================================")
}
