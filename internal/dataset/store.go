package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/soltixdb/txcast/internal/logging"
)

// ErrNotLoaded is returned before the first successful load
var ErrNotLoaded = errors.New("dataset not loaded")

// Store holds the current snapshot. Reloads build a new snapshot and
// swap it in atomically, so readers never see a partial dataset.
type Store struct {
	path     string
	userPath string
	logger   *logging.Logger

	current atomic.Pointer[Snapshot]

	mu        sync.Mutex // serializes reloads and listener registration
	listeners []func(*Snapshot)
}

// NewStore creates a store reading the transactions file at path and the
// optional per-brand user file at userPath
func NewStore(path, userPath string, logger *logging.Logger) *Store {
	return &Store{
		path:     path,
		userPath: userPath,
		logger:   logger.WithComponent("dataset"),
	}
}

// NewStaticStore returns a store serving a fixed snapshot
func NewStaticStore(snap *Snapshot, logger *logging.Logger) *Store {
	s := &Store{logger: logger.WithComponent("dataset")}
	s.current.Store(snap)
	return s
}

// Snapshot returns the current snapshot
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// OnReload registers fn to be called after a load that changed the data
func (s *Store) OnReload(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load reads the dataset files and swaps in a new snapshot. The previous
// snapshot stays in place when loading fails.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return s.Snapshot()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	records, content, err := ReadFile(ctx, s.path)
	if err != nil {
		return nil, err
	}

	var users []Record
	if s.userPath != "" {
		var userContent []byte
		users, userContent, err = ReadFile(ctx, s.userPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			s.logger.Warn("User dataset not found, brand statistics disabled", "path", s.userPath)
			users = nil
		case err != nil:
			return nil, err
		default:
			content = append(content, userContent...)
		}
	}

	// A load that overran its deadline must not replace the snapshot
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version:  uuid.NewSHA1(uuid.NameSpaceOID, content).String(),
		Source:   s.path,
		LoadedAt: time.Now().UTC(),
		Records:  records,
		Users:    users,
	}

	prev := s.current.Swap(snap)
	changed := prev == nil || prev.Version != snap.Version

	s.logger.Info("Dataset loaded",
		"path", s.path,
		"records", len(records),
		"users", len(users),
		"version", snap.Version,
		"changed", changed,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if changed {
		for _, fn := range s.listeners {
			fn(snap)
		}
	}
	return snap, nil
}

// Watch reloads the dataset every interval until ctx is done
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.background(ctx, "interval")
		}
	}
}

// Schedule reloads the dataset on a cron schedule (standard five fields or
// a descriptor such as "@hourly") until ctx is done
func (s *Store) Schedule(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.background(ctx, "schedule") }); err != nil {
		return fmt.Errorf("invalid reload schedule %q: %w", spec, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

func (s *Store) background(ctx context.Context, trigger string) {
	if _, err := s.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Background dataset reload failed", "path", s.path, "trigger", trigger, "error", err)
	}
}
