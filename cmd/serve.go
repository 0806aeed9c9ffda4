package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdamba/menusync/internal/activity"
	"github.com/chrisdamba/menusync/internal/api"
	"github.com/chrisdamba/menusync/internal/cart"
	"github.com/chrisdamba/menusync/internal/favorites"
	"github.com/chrisdamba/menusync/internal/localstore"
	"github.com/chrisdamba/menusync/internal/repositories/postgres"
	"github.com/chrisdamba/menusync/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve one device's session, cart and favorites over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		local, closeLocal, err := localstore.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeLocal()

		output, err := activity.NewOutput(cfg, logger)
		if err != nil {
			return err
		}
		recorder := activity.NewRecorder(output, logger)
		defer recorder.Close()

		catalog := postgres.NewCatalogRepository(pool)
		documents := postgres.NewDocumentStore(pool, logger)

		cartEngine := cart.Open(ctx, cart.Options{
			Local:    local,
			Remote:   documents,
			Recorder: recorder,
			Logger:   logger,
			Strict:   cfg.Strict,
		})
		defer cartEngine.Close()
		favEngine := favorites.Open(ctx, favorites.Options{
			Local:    local,
			Remote:   documents,
			Recorder: recorder,
			Logger:   logger,
		})
		defer favEngine.Close()

		sess := session.New(session.Options{
			StoreID:   cfg.StoreID,
			Catalog:   catalog,
			Orders:    postgres.NewOrderRepository(pool),
			Cart:      cartEngine,
			Favorites: favEngine,
			Recorder:  recorder,
			Logger:    logger,
		})

		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           api.NewRouter(api.NewHandler(cfg.StoreID, catalog, sess), logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("listening", zap.String("addr", cfg.ListenAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		err = g.Wait()

		// push whatever is still queued before the engines close
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if ferr := cartEngine.Flush(flushCtx); ferr != nil {
			logger.Warn("final cart flush", zap.Error(ferr))
		}
		if ferr := favEngine.Flush(flushCtx); ferr != nil {
			logger.Warn("final favorites flush", zap.Error(ferr))
		}
		return err
	},
}

func init() {
	serveCmd.Flags().String("listen-addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("local-store", "bolt", "Local store driver (bolt, s3, memory)")
	_ = viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen-addr"))
	_ = viper.BindPFlag("local_store.driver", serveCmd.Flags().Lookup("local-store"))
}
