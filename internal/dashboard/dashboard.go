package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"molle_pos/internal/config"
	"molle_pos/internal/posapi"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is the part of the API the dashboard reads from.
type Source interface {
	SalesStatistics(ctx context.Context) (posapi.Statistics, error)
	ListTodayInvoices(ctx context.Context) ([]posapi.SalesInvoice, error)
	ListLowStockProducts(ctx context.Context) ([]posapi.Product, error)
}

type SyncRecorder interface {
	SetLastSync(ctx context.Context, t time.Time) error
}

type Snapshot struct {
	Statistics    posapi.Statistics     `json:"statistics"`
	TodayInvoices []posapi.SalesInvoice `json:"today_invoices"`
	LowStock      []posapi.Product      `json:"low_stock"`
	LoadedAt      time.Time             `json:"loaded_at"`
}

type Loader struct {
	source   Source
	recorder SyncRecorder
	interval time.Duration
	offline  bool
	logger   *zap.Logger
	now      func() time.Time
}

func New(source Source, recorder SyncRecorder, cfg config.Config, logger *zap.Logger) *Loader {
	cfg = cfg.Normalize()
	return &Loader{
		source:   source,
		recorder: recorder,
		interval: cfg.SyncInterval,
		offline:  cfg.OfflineMode,
		logger:   logger.Named("dashboard"),
		now:      time.Now,
	}
}

// Load fetches statistics, today's invoices and low-stock products in
// parallel. The first failure cancels the remaining calls.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := l.source.SalesStatistics(gctx)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		snap.Statistics = stats
		return nil
	})
	g.Go(func() error {
		invoices, err := l.source.ListTodayInvoices(gctx)
		if err != nil {
			return fmt.Errorf("today invoices: %w", err)
		}
		snap.TodayInvoices = invoices
		return nil
	})
	g.Go(func() error {
		products, err := l.source.ListLowStockProducts(gctx)
		if err != nil {
			return fmt.Errorf("low stock: %w", err)
		}
		snap.LowStock = products
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.LoadedAt = l.now()
	return snap, nil
}

// Watch loads a snapshot right away and then once per sync interval,
// handing each one to fn and recording the refresh time. It returns nil
// when ctx ends. With offline mode on, an unreachable server skips the
// round instead of ending the watch.
func (l *Loader) Watch(ctx context.Context, fn func(Snapshot)) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := l.refresh(ctx, fn); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !l.offline || !errors.Is(err, posapi.ErrTransport) {
				return err
			}
			l.logger.Warn("dashboard refresh skipped, server unreachable", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sync loads a snapshot and records its time as the last sync.
func (l *Loader) Sync(ctx context.Context) (Snapshot, error) {
	snap, err := l.Load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if l.recorder != nil {
		if err := l.recorder.SetLastSync(ctx, snap.LoadedAt); err != nil {
			return Snapshot{}, fmt.Errorf("record last sync: %w", err)
		}
	}
	l.logger.Debug("dashboard refreshed",
		zap.Int("today_invoices", len(snap.TodayInvoices)),
		zap.Int("low_stock", len(snap.LowStock)),
	)
	return snap, nil
}

func (l *Loader) refresh(ctx context.Context, fn func(Snapshot)) error {
	snap, err := l.Sync(ctx)
	if err != nil {
		return err
	}
	fn(snap)
	return nil
}
