package upload

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"facility-report/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ImageRefLister reports every image path currently referenced by a report.
// The report repository implements it.
type ImageRefLister interface {
	ListImagePaths(ctx context.Context) ([]string, error)
}

// Sweeper removes uploaded files nothing references anymore. Image writes
// and document writes are not transactional, so a crash between the two can
// strand a file on disk; the sweep is the cleanup side of that trade.
type Sweeper struct {
	storage   Storage
	refs      ImageRefLister
	logger    *zap.Logger
	schedule  string
	maxAge    time.Duration
	scheduler *cron.Cron
}

func NewSweeper(storage Storage, refs ImageRefLister, cfg *config.Config, logger *zap.Logger) *Sweeper {
	maxAge, err := time.ParseDuration(cfg.SweepMaxAge)
	if err != nil {
		logger.Warn("invalid SWEEP_MAX_AGE, using 24h", zap.String("value", cfg.SweepMaxAge))
		maxAge = 24 * time.Hour
	}
	return &Sweeper{
		storage:  storage,
		refs:     refs,
		logger:   logger,
		schedule: cfg.SweepSchedule,
		maxAge:   maxAge,
	}
}

// Start registers the sweep on its cron schedule.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return err
	}

	s.scheduler = cron.New()
	s.scheduler.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if removed, err := s.Sweep(ctx); err != nil {
			s.logger.Error("orphan sweep failed", zap.Error(err))
		} else if removed > 0 {
			s.logger.Info("orphan sweep removed files", zap.Int("count", removed))
		}
	})
	s.scheduler.Start()
	return nil
}

func (s *Sweeper) Stop() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}

// Sweep deletes files in the upload directory that no report references
// and that are older than the grace period. The grace period keeps an
// upload from a create/update still in flight safe from deletion.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	paths, err := s.refs.ListImagePaths(ctx)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]bool, len(paths))
	for _, p := range paths {
		referenced[filepath.Clean(p)] = true
	}

	entries, err := os.ReadDir(s.storage.Dir())
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		full := filepath.Clean(filepath.Join(s.storage.Dir(), entry.Name()))
		if referenced[full] {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(full); err != nil {
			s.logger.Warn("failed to remove orphan", zap.String("path", full), zap.Error(err))
			continue
		}
		removed++
	}

	return removed, nil
}
