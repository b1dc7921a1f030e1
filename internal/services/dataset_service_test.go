package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/events"
	"github.com/soltixdb/txcast/internal/logging"
)

func TestDatasetService_Summary(t *testing.T) {
	f := newFixture(t, linearRecords())
	ctx := context.Background()

	sum, err := f.dataset.Summary(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.StatesCount)
	assert.Equal(t, 2, sum.TransactionTypes)
	assert.Equal(t, []int{2018, 2019, 2020, 2021, 2022}, sum.Years)
	// sum of 150+15i for i in 0..19
	assert.InDelta(t, 5850, sum.TotalTransactions, 1e-9)

	sum, err = f.dataset.Summary(ctx, 2018, 1)
	require.NoError(t, err)
	assert.InDelta(t, 150, sum.TotalTransactions, 1e-9)

	_, err = f.dataset.Summary(ctx, 0, 5)
	requireServiceError(t, err, CodeInvalidParameter)
}

func TestDatasetService_States(t *testing.T) {
	f := newFixture(t, linearRecords())
	ctx := context.Background()

	states, err := f.dataset.States(ctx, 0)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "Karnataka", states[0].Name)

	states, err = f.dataset.States(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, states, 1)

	_, err = f.dataset.States(ctx, 51)
	requireServiceError(t, err, CodeInvalidLimit)
}

func TestDatasetService_State(t *testing.T) {
	f := newFixture(t, linearRecords())
	ctx := context.Background()

	detail, err := f.dataset.State(ctx, "Maharashtra")
	require.NoError(t, err)
	assert.Equal(t, "Maharashtra", detail.State)
	require.Len(t, detail.ByType, 1)
	assert.Equal(t, "Merchant payments", detail.ByType[0].Name)
	require.Len(t, detail.TimeSeries, 20)
	assert.Equal(t, Point{Date: "2018-03-31", Value: 50}, detail.TimeSeries[0])

	_, err = f.dataset.State(ctx, "Atlantis")
	requireServiceError(t, err, CodeNotFound)
}

func TestDatasetService_TypesAndBrands(t *testing.T) {
	f := newFixture(t, linearRecords())
	ctx := context.Background()

	types, err := f.dataset.Types(ctx, "", 2022)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Peer-to-peer payments", types[0].Name)

	types, err = f.dataset.Types(ctx, "Merchant payments", 0)
	require.NoError(t, err)
	require.Len(t, types, 1)

	brands, err := f.dataset.Brands(ctx, 2)
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "Xiaomi", brands[0].Name)
	assert.InDelta(t, 66.67, brands[0].Percentage, 1e-9)
}

func TestDatasetService_Export(t *testing.T) {
	f := newFixture(t, linearRecords())

	result, err := f.dataset.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "upi_data.csv", result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	assert.Len(t, lines, 41)
	assert.Equal(t, "Year,Quarter,State,Transaction_type,Transaction_count,Transaction_amount", lines[0])

	_, err = f.dataset.Export(context.Background(), "parquet")
	requireServiceError(t, err, CodeInvalidFormat)
}

func TestDatasetService_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agg_trans.csv")
	require.NoError(t, os.WriteFile(path, []byte("Year,Quarter,State,Transaction_type,Transaction_count,Transaction_amount\n2021,1,Goa,P2P,10,100\n"), 0644))

	logger := logging.Nop()
	cfg := testConfig()
	cfg.Events.Type = "memory"
	bus, err := events.New(cfg.Events)
	require.NoError(t, err)

	emitter := events.NewEmitter(bus, cfg.Events.Prefix, logger)
	defer func() { _ = emitter.Close() }()

	reloaded := make(chan events.Event, 4)
	require.NoError(t, emitter.On(events.TypeDatasetReloaded, func(_ context.Context, ev events.Event) error {
		reloaded <- ev
		return nil
	}))

	store := dataset.NewStore(path, "", logger)
	svc := NewDatasetService(logger, store, emitter)
	require.NoError(t, svc.ListenForReloads())

	// Before the first load nothing is served
	_, err = svc.States(context.Background(), 0)
	requireServiceError(t, err, CodeDatasetUnavailable)

	result, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Records)
	waitEvent(t, reloaded)

	// A reload command on the bus picks up the new file
	require.NoError(t, os.WriteFile(path, []byte("Year,Quarter,State,Transaction_type,Transaction_count,Transaction_amount\n2021,1,Goa,P2P,10,100\n2021,2,Goa,P2P,12,120\n"), 0644))
	require.NoError(t, emitter.Emit(context.Background(), events.TypeDatasetReload, events.DatasetReload{Reason: "test"}))

	ev := waitEvent(t, reloaded)
	var payload events.DatasetReloaded
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, 2, payload.Records)
}

func TestDatasetService_ReloadMissingFile(t *testing.T) {
	logger := logging.Nop()
	store := dataset.NewStore(filepath.Join(t.TempDir(), "missing.csv"), "", logger)
	svc := NewDatasetService(logger, store, nil)

	_, err := svc.Reload(context.Background())
	requireServiceError(t, err, CodeDatasetUnavailable)
}

func waitEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}
