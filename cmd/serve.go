package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/handlers"
	"github.com/lengapp/leng-api/api/scheduler"
	"github.com/lengapp/leng-api/config"
)

const shutdownTimeout = 20 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background jobs",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	conf := config.Load(envFile)
	api.SetQueryTimeout(conf.QueryTimeout)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := handlers.App{Config: conf}
	if err := a.Initialize(ctx); err != nil {
		return err
	}

	var lock scheduler.Locker = scheduler.LocalLocker{}
	if conf.RedisURL != "" {
		redisLock, err := scheduler.NewRedisLocker(conf.RedisURL)
		if err != nil {
			return err
		}
		defer redisLock.Close()
		lock = redisLock
	}
	sched := scheduler.NewScheduler(a.DB(), lock)
	if err := sched.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + conf.Port,
		Handler:           api.Wrap(a.Router, conf.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.S().Infow("leng-api is up and running",
			"port", conf.Port,
			"url", conf.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		sched.Stop()
		if cerr := a.Close(shutdownCtx); cerr != nil {
			zap.S().Warnw("failed to close app", "error", cerr)
		}
		return err
	})
	return g.Wait()
}
