package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/soltixdb/txcast/internal/analytics/aggregate"
	"github.com/soltixdb/txcast/internal/analytics/period"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/events"
	"github.com/soltixdb/txcast/internal/export"
	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/utils"
)

// DatasetService serves descriptive statistics and raw exports of the
// loaded dataset and triggers reloads
type DatasetService struct {
	logger  *logging.Logger
	store   *dataset.Store
	emitter *events.Emitter
}

// NewDatasetService creates a new DatasetService. Successful reloads that
// change the data are announced as dataset.reloaded events.
func NewDatasetService(logger *logging.Logger, store *dataset.Store, emitter *events.Emitter) *DatasetService {
	if emitter == nil {
		emitter = events.NewEmitter(events.NewNop(), "", logger)
	}
	s := &DatasetService{
		logger:  logger.WithComponent("dataset-service"),
		store:   store,
		emitter: emitter,
	}
	store.OnReload(func(snap *dataset.Snapshot) {
		s.emitter.EmitAsync(events.TypeDatasetReloaded, events.DatasetReloaded{
			Version: snap.Version,
			Source:  snap.Source,
			Records: len(snap.Records),
			Users:   len(snap.Users),
		})
	})
	return s
}

func (s *DatasetService) snapshot() (*dataset.Snapshot, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, translateError(err)
	}
	return snap, nil
}

// Summary returns totals for the given year/quarter (0 = all) and growth
// figures for the whole dataset
func (s *DatasetService) Summary(_ context.Context, year, quarter int) (*dataset.Summary, error) {
	if quarter < 0 || quarter > 4 {
		return nil, NewServiceError(CodeInvalidParameter, fmt.Sprintf("invalid quarter: %d", quarter))
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	sum := snap.Summary(dataset.Filter{Year: year, Quarter: quarter})
	return &sum, nil
}

// States returns the top states by transaction count
func (s *DatasetService) States(_ context.Context, limit int) ([]dataset.Group, error) {
	if limit == 0 {
		limit = utils.DefaultListLimit
	}
	if limit < 1 || limit > utils.MaxListLimit {
		return nil, NewServiceErrorWithDetails(CodeInvalidLimit, "limit out of range", map[string]interface{}{
			"min": 1,
			"max": utils.MaxListLimit,
		})
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.States(limit), nil
}

// StateResponse is a state breakdown with its quarterly series
type StateResponse struct {
	dataset.StateDetail
	TimeSeries []Point `json:"time_series"`
}

// State returns the breakdown of one state
func (s *DatasetService) State(_ context.Context, name string) (*StateResponse, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	detail, ok := snap.State(name)
	if !ok {
		return nil, NewServiceError(CodeNotFound, fmt.Sprintf("State '%s' not found", name))
	}

	resp := &StateResponse{StateDetail: detail, TimeSeries: []Point{}}
	obs := snap.Observations(dataset.Filter{State: name}, dataset.MetricCount)
	series, _, err := aggregate.Aggregate(obs, period.Quarter, aggregate.Options{SkipInvalid: true})
	if err != nil {
		s.logger.Warn("State has no usable time markers", "state", name, "error", err)
		return resp, nil
	}
	resp.TimeSeries = toPoints(series.Points)
	return resp, nil
}

// Types returns transaction type totals, optionally for one type or year
func (s *DatasetService) Types(_ context.Context, transactionType string, year int) ([]dataset.Group, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Types(dataset.Filter{Type: transactionType, Year: year}), nil
}

// Brands returns the top brands by registered users
func (s *DatasetService) Brands(_ context.Context, limit int) ([]dataset.Group, error) {
	if limit == 0 {
		limit = utils.DefaultListLimit
	}
	if limit < 1 || limit > utils.MaxListLimit {
		return nil, NewServiceErrorWithDetails(CodeInvalidLimit, "limit out of range", map[string]interface{}{
			"min": 1,
			"max": utils.MaxListLimit,
		})
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Brands(limit), nil
}

// Export renders the raw transaction records
func (s *DatasetService) Export(_ context.Context, format string) (*ExportResult, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, NewServiceError(CodeInvalidFormat, err.Error())
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, f, export.RecordsTable(snap.Records)); err != nil {
		return nil, NewServiceError(CodeInternal, err.Error())
	}
	return &ExportResult{
		Data:        buf.Bytes(),
		ContentType: f.ContentType(),
		Filename:    f.Filename("upi_data"),
	}, nil
}

// DatasetInfo describes the snapshot in effect
type DatasetInfo struct {
	Version  string    `json:"version"`
	Source   string    `json:"source"`
	Records  int       `json:"records"`
	Users    int       `json:"users"`
	LoadedAt time.Time `json:"loaded_at"`
}

func infoOf(snap *dataset.Snapshot) *DatasetInfo {
	return &DatasetInfo{
		Version:  snap.Version,
		Source:   snap.Source,
		Records:  len(snap.Records),
		Users:    len(snap.Users),
		LoadedAt: snap.LoadedAt,
	}
}

// Info describes the current snapshot
func (s *DatasetService) Info() (*DatasetInfo, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return infoOf(snap), nil
}

// Reload re-reads the dataset files
func (s *DatasetService) Reload(ctx context.Context) (*DatasetInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.DatasetLoadTimeout)
	defer cancel()

	snap, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("Dataset reload failed", "error", err)
		return nil, NewServiceError(CodeDatasetUnavailable, err.Error())
	}
	return infoOf(snap), nil
}

// ListenForReloads reloads the dataset whenever a dataset.reload command
// arrives on the bus
func (s *DatasetService) ListenForReloads() error {
	return s.emitter.On(events.TypeDatasetReload, func(ctx context.Context, ev events.Event) error {
		var cmd events.DatasetReload
		if err := ev.Decode(&cmd); err != nil {
			s.logger.Warn("Ignoring malformed reload command", "event_id", ev.ID, "error", err)
			return nil
		}
		s.logger.Info("Reload requested over event bus", "event_id", ev.ID, "reason", cmd.Reason)
		_, err := s.Reload(ctx)
		return err
	})
}
