package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soltixdb/txcast/internal/cache"
	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/events"
	"github.com/soltixdb/txcast/internal/logging"
)

// linearRecords builds quarters 2018Q1..2022Q4 for two states whose
// national total is 150 + 15*i
func linearRecords() []dataset.Record {
	var records []dataset.Record
	for i := 0; i < 20; i++ {
		year, quarter := 2018+i/4, i%4+1
		records = append(records,
			dataset.Record{Year: year, Quarter: quarter, State: "Karnataka", Type: "Peer-to-peer payments",
				Count: float64(100 + 10*i), Amount: float64(1000 + 100*i)},
			dataset.Record{Year: year, Quarter: quarter, State: "Maharashtra", Type: "Merchant payments",
				Count: float64(50 + 5*i), Amount: float64(500 + 50*i)},
		)
	}
	return records
}

func userRecords() []dataset.Record {
	return []dataset.Record{
		{Year: 2021, Quarter: 1, Brand: "Xiaomi", Count: 600},
		{Year: 2021, Quarter: 1, Brand: "Samsung", Count: 300},
		{Year: 2021, Quarter: 2, Brand: "Vivo", Count: 100},
	}
}

func testSnapshot(records []dataset.Record) *dataset.Snapshot {
	return &dataset.Snapshot{
		Version:  "test-v1",
		Source:   "memory",
		LoadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Records:  records,
		Users:    userRecords(),
	}
}

func testConfig() *config.Config {
	return config.DefaultConfig()
}

type fixture struct {
	store    *dataset.Store
	bus      events.Bus
	emitter  *events.Emitter
	forecast *ForecastService
	series   *TimeSeriesService
	dataset  *DatasetService
}

func newFixture(t *testing.T, records []dataset.Record) *fixture {
	t.Helper()

	logger := logging.Nop()
	cfg := testConfig()
	cfg.Events.Type = "memory"

	bus, err := events.New(cfg.Events)
	require.NoError(t, err)
	emitter := events.NewEmitter(bus, cfg.Events.Prefix, logger)
	t.Cleanup(func() { _ = emitter.Close() })

	resultCache, err := cache.NewTyped(cfg.Cache)
	require.NoError(t, err)

	store := dataset.NewStaticStore(testSnapshot(records), logger)

	return &fixture{
		store:    store,
		bus:      bus,
		emitter:  emitter,
		forecast: NewForecastService(logger, store, resultCache, emitter, cfg),
		series:   NewTimeSeriesService(logger, store, cfg),
		dataset:  NewDatasetService(logger, store, emitter),
	}
}

func requireServiceError(t *testing.T, err error, code string) *ServiceError {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := err.(*ServiceError)
	require.True(t, ok, "expected *ServiceError, got %T", err)
	require.Equal(t, code, svcErr.Code, svcErr.Message)
	return svcErr
}

func horizon(n int) *int {
	return &n
}
