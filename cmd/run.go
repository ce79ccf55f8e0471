package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	v1 "github.com/kubev2v/compute-offload-agent/api/v1"
	"github.com/kubev2v/compute-offload-agent/internal/handlers"
	"github.com/kubev2v/compute-offload-agent/internal/metrics"
	"github.com/kubev2v/compute-offload-agent/internal/models"
	"github.com/kubev2v/compute-offload-agent/internal/server"
	"github.com/kubev2v/compute-offload-agent/internal/services"
	"github.com/kubev2v/compute-offload-agent/internal/store"
	"github.com/kubev2v/compute-offload-agent/pkg/dispatcher"
)

func NewRunCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Start the agent http api",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			zap.S().Named("cmd").Infow("starting agent", "configuration", cfg.DebugMap())
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}
	registerConfigFlags(c)
	return c
}

func registerConfigFlags(c *cobra.Command) {
	flags := c.Flags()
	flags.StringVar(&cfg.Server.ServerMode, "server-mode", cfg.Server.ServerMode, "server mode (dev, prod)")
	flags.IntVar(&cfg.Server.HTTPPort, "http-port", cfg.Server.HTTPPort, "http api listen port")
	flags.DurationVar(&cfg.Server.ShutdownTimeout, "shutdown-timeout", cfg.Server.ShutdownTimeout, "grace period for in-flight jobs on shutdown")
	flags.IntVar(&cfg.Dispatcher.MaxWorkers, "max-workers", cfg.Dispatcher.MaxWorkers, "worker pool size, 0 means one per cpu")
	flags.DurationVar(&cfg.Dispatcher.DefaultTimeout, "default-timeout", cfg.Dispatcher.DefaultTimeout, "job deadline when the request sets none, 0 disables it")
	flags.IntVar(&cfg.Dispatcher.QueueCapacity, "queue-capacity", cfg.Dispatcher.QueueCapacity, "jobs waiting for a worker, 0 means unbounded")
	flags.BoolVar(&cfg.Dispatcher.PinWorkers, "pin-workers", cfg.Dispatcher.PinWorkers, "bind each worker to one cpu (linux only)")
	flags.IntVar(&cfg.Dispatcher.ObservationBuffer, "observation-buffer", cfg.Dispatcher.ObservationBuffer, "observations buffered per observer before dropping")
	flags.StringVar(&cfg.Store.DataFolder, "data-folder", cfg.Store.DataFolder, "folder holding the observation journal, empty keeps it in memory")
	flags.IntVar(&cfg.Store.JournalBuffer, "journal-buffer", cfg.Store.JournalBuffer, "observations buffered by the journal writer")
}

func run(ctx context.Context) error {
	log := zap.S().Named("cmd")

	dbPath, err := store.DBPath(cfg.Store.DataFolder)
	if err != nil {
		return err
	}
	db, err := store.NewDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}
	st := store.NewStore(db)
	defer func() {
		if err := st.Close(); err != nil {
			log.Warnw("failed to close store", "error", err)
		}
	}()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate journal database: %w", err)
	}

	journal := services.NewJournal(st, cfg.Store.JournalBuffer)

	var computeSrv *services.Compute
	collector := metrics.NewCollector(func(ctx context.Context) (models.DispatcherStatus, error) {
		return computeSrv.Status(ctx)
	})
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d := services.NewFibonacciDispatcher(
		dispatcher.WithMaxWorkers(cfg.Dispatcher.MaxWorkers),
		dispatcher.WithDefaultTimeout(cfg.Dispatcher.DefaultTimeout),
		dispatcher.WithQueueCapacity(cfg.Dispatcher.QueueCapacity),
		dispatcher.WithPinWorkers(cfg.Dispatcher.PinWorkers),
		dispatcher.WithObservationBuffer(cfg.Dispatcher.ObservationBuffer),
		dispatcher.WithObserver(journal),
		dispatcher.WithObserver(collector),
	)
	computeSrv = services.NewComputeService(d)

	h := handlers.New(computeSrv, journal)
	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
		v1.RegisterHandlers(router, h)
	}, server.WithHealth(h.Health), server.WithMetrics(registry))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv, d, journal)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("agent stopped")
	return nil
}

type httpStopper interface {
	Stop(ctx context.Context) error
}

type dispatcherShutdowner interface {
	Shutdown(ctx context.Context) error
}

type journalCloser interface {
	Close()
}

// shutdown stops the http server and the dispatcher together: in-flight
// handlers wait on queued jobs, which only the dispatcher shutdown fails
// right away. The journal is closed once both are done so it records the
// last observations.
func shutdown(srv httpStopper, d dispatcherShutdowner, journal journalCloser) error {
	log := zap.S().Named("cmd")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		if err := d.Shutdown(ctx); err != nil {
			log.Warnw("dispatcher did not drain in time", "error", err)
			return fmt.Errorf("dispatcher: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := srv.Stop(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	err := g.Wait()

	journal.Close()
	return err
}
