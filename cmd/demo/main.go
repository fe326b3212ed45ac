package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comalice/counterx/internal/config"
	"github.com/comalice/counterx/internal/core"
	"github.com/comalice/counterx/internal/extensibility"
	"github.com/comalice/counterx/internal/primitives"
	"github.com/comalice/counterx/internal/production"
)

const slotID = "demo"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("COUNTERX_CONFIG"))
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)
	policy, err := cfg.OverflowPolicy()
	if err != nil {
		return err
	}

	snapshotDir := cfg.SnapshotDir
	if snapshotDir == "" {
		snapshotDir = os.TempDir()
	}
	persister, err := production.NewPersister(cfg.SnapshotFormat, snapshotDir)
	if err != nil {
		return err
	}

	publishChan := make(chan production.PublishedTransition, 100)
	publisher := production.NewChannelPublisher(slotID, publishChan)

	reg := prometheus.NewRegistry()
	engine := core.NewEngine(
		core.WithOverflowPolicy(policy),
		core.WithLogger(logger),
		core.WithPublisher(publisher),
		core.WithObserver(production.NewPromObserver(reg)),
	)

	// Program cycles through every opcode, plus one malformed buffer.
	source, err := extensibility.NewTickerSource(cfg.TickInterval,
		primitives.Increment(1).Encode(),
		primitives.Increment(10).Encode(),
		primitives.Decrement(4).Encode(),
		[]byte{4},
		primitives.Update(33).Encode(),
		primitives.Decrement(40).Encode(),
		primitives.Reset().Encode(),
	)
	if err != nil {
		return err
	}
	defer source.Stop()

	buf := make([]byte, primitives.RecordSize)
	runner := core.NewRunner(engine, slotID, primitives.NewBufferSlot(buf),
		core.WithPersister(persister),
		core.WithSource(source),
		core.WithRunnerLogger(logger),
	)
	if err := restoreSlot(context.Background(), persister, runner, logger); err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", slog.Any("error", err))
		}
	}()
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop()

	timeout := time.After(20 * cfg.TickInterval)
	for {
		select {
		case pub := <-publishChan:
			tr := pub.Transition
			fmt.Printf("%s: %-14s %d -> %d\n", pub.SlotID, tr.Command(), tr.Before, tr.After)
		case <-timeout:
			fmt.Println("Demo complete.")
			return nil
		case <-ctx.Done():
			fmt.Println("\nShutting down gracefully...")
			return nil
		}
	}
}

// restoreSlot loads the last snapshot into runner. A missing snapshot is a
// fresh start; any other load failure is returned so a corrupt file is never
// overwritten by the first commit.
func restoreSlot(ctx context.Context, persister core.Persister, runner *core.Runner, logger *slog.Logger) error {
	snap, err := persister.Load(ctx, slotID)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("no snapshot, starting from zero", slog.String("slot", slotID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := runner.Restore(snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	logger.Info("restored slot", slog.Uint64("counter", uint64(snap.Record.Counter)))
	return nil
}
