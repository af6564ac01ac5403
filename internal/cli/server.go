package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/setlabs/serpd/internal/config"
	"github.com/setlabs/serpd/internal/core/ledger"
	"github.com/setlabs/serpd/internal/core/serp"
	"github.com/setlabs/serpd/internal/core/types"
	"github.com/setlabs/serpd/internal/events"
	"github.com/setlabs/serpd/internal/server/jsonrpc"
	"github.com/setlabs/serpd/internal/storage/balancestore"
	"github.com/setlabs/serpd/internal/storage/kv"
	kvmemory "github.com/setlabs/serpd/internal/storage/kv/memory"
	kvpebble "github.com/setlabs/serpd/internal/storage/kv/pebble"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the serpd JSON-RPC server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

type closer interface {
	Close() error
}

func openDB(cfg config.DatabaseConfig) (kv.DB, closer, error) {
	switch cfg.Backend {
	case "pebble":
		db, err := kvpebble.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	default:
		db := kvmemory.NewDB()
		return db, db, nil
	}
}

func runServer() error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Log)

	db, dbCloser, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer dbCloser.Close()

	publisher, err := events.NewPublisher(64, 128)
	if err != nil {
		return err
	}
	sink := events.Tee{publisher, events.NewLogSink(log)}

	store := balancestore.New(db)
	router := ledger.NewRouter(store, types.AssetID(cfg.Market.NativeAsset), cfg.Market.MinBalanceMap(), sink)
	market, err := serp.NewMarket(cfg.Market.Params(), router)
	if err != nil {
		return err
	}

	handler := jsonrpc.NewHandler(market, publisher)
	srv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: jsonrpc.NewServer(handler, log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("listen", cfg.Server.Listen).
			Str("native_asset", cfg.Market.NativeAsset).
			Str("backend", cfg.Database.Backend).
			Msg("starting serpd")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
