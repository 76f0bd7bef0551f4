package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fellowmatch/api/grpcserver"
	"fellowmatch/infra/kafka"
	"fellowmatch/jobs/broadcaster"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC engine, the event broadcaster and the metrics endpoint",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	g, ctx := errgroup.WithContext(ctx)

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", cfg.GRPC.Addr)
	}
	grpcSrv := grpcserver.Register(a.svc, logger)

	g.Go(func() error {
		logger.Info("gRPC listening", zap.String("addr", lis.Addr().String()))
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		grpcSrv.GracefulStop()
		return nil
	})

	// ---------------- Broadcaster ----------------

	if cfg.Broadcaster.Enabled {
		pub, err := kafka.New(cfg.Broadcaster.Client, cfg.Broadcaster.Brokers, cfg.Broadcaster.Topic, logger)
		if err != nil {
			return err
		}
		defer pub.Close()

		bc := broadcaster.New(a.outbox, pub, broadcaster.Config{
			Interval:       cfg.BroadcastInterval(),
			MaxRetries:     cfg.Broadcaster.MaxRetries,
			PublishTimeout: cfg.PublishTimeout(),
			RetryBackoff:   cfg.RetryBackoff(),
			Observer:       a.metrics,
		}, logger)
		g.Go(func() error { return bc.Run(ctx) })
	}

	// ---------------- Metrics ----------------

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		httpSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(sctx)
		})
	}

	err = g.Wait()
	logger.Info("engine stopped")
	return err
}
