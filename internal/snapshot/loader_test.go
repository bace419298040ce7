package snapshot_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
	"github.com/durabrake/findash/internal/snapshot/snapshottest"
)

func TestPeriodsNewestFirst(t *testing.T) {
	loader := snapshot.NewLoader(snapshottest.FS())
	keys, err := loader.Periods(context.Background())
	require.NoError(t, err)
	got := make([]string, len(keys))
	for i, k := range keys {
		got[i] = k.String()
	}
	assert.Equal(t, []string{"25.12", "25.11", "25.10"}, got)
}

func TestPeriodsMissingRoot(t *testing.T) {
	loader := snapshot.NewDirLoader(t.TempDir() + "/absent")
	keys, err := loader.Periods(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDashboardSeries(t *testing.T) {
	loader := snapshot.NewLoader(snapshottest.FS())
	dash, err := loader.Dashboard(context.Background(), period.MustParseKey("25.11"))
	require.NoError(t, err)
	require.Len(t, dash.Series, 11)
	assert.Equal(t, "25.01", dash.Series[0].Period.String())
	assert.Equal(t, "25.11", dash.Series[10].Period.String())
	assert.Equal(t, snapshottest.Revenue(11), dash.Series[10].Revenue)
	assert.Len(t, dash.Products, len(snapshottest.Products))
}

func TestMissingDocumentIsUnavailable(t *testing.T) {
	loader := snapshot.NewLoader(snapshottest.FS())
	_, err := loader.Customers(context.Background(), period.MustParseKey("25.10"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, snapshot.ErrUnavailable))

	_, err = loader.Backlog(context.Background(), period.MustParseKey("24.01"))
	assert.ErrorIs(t, err, snapshot.ErrUnavailable)
}

func TestMalformedDocument(t *testing.T) {
	fsys := fstest.MapFS{}
	key := period.MustParseKey("25.12")
	doc := snapshottest.Dashboard(key)
	doc.MonthlySeries[3].Inventory = nil
	snapshottest.Put(fsys, key, snapshot.DashboardFile, doc)
	fsys["25.12/"+snapshot.BacklogFile] = &fstest.MapFile{Data: []byte(`{"metadata": {`)}

	loader := snapshot.NewLoader(fsys)
	_, err := loader.Dashboard(context.Background(), key)
	var verr *snapshot.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, snapshot.DashboardFile, verr.Document)
	assert.Contains(t, verr.Fields(), "DashboardDoc.MonthlySeries[3].Inventory")
	assert.False(t, errors.Is(err, snapshot.ErrUnavailable))

	_, err = loader.Backlog(context.Background(), key)
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, verr.Fields())
}

func TestInvalidPeriodMetadata(t *testing.T) {
	fsys := fstest.MapFS{}
	key := period.MustParseKey("25.12")
	doc := snapshottest.Dashboard(key)
	doc.Metadata.Period = "December"
	snapshottest.Put(fsys, key, snapshot.DashboardFile, doc)

	_, err := snapshot.NewLoader(fsys).Dashboard(context.Background(), key)
	var verr *snapshot.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields(), "DashboardDoc.Metadata.Period")
}

func TestMonthLabelsWithoutPeriod(t *testing.T) {
	fsys := fstest.MapFS{}
	key := period.MustParseKey("25.03")
	doc := snapshottest.Dashboard(key)
	labels := []string{"Jan", "2025-02", "March 2025"}
	for i := range doc.MonthlySeries {
		doc.MonthlySeries[i].Period = ""
		doc.MonthlySeries[i].Month = labels[i]
	}
	snapshottest.Put(fsys, key, snapshot.DashboardFile, doc)

	dash, err := snapshot.NewLoader(fsys).Dashboard(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, dash.Series, 3)
	assert.Equal(t, "25.01", dash.Series[0].Period.String())
	assert.Equal(t, "25.03", dash.Series[2].Period.String())
}

func TestCustomersAndBacklogConversion(t *testing.T) {
	loader := snapshot.NewLoader(snapshottest.FS())
	ctx := context.Background()
	key := period.MustParseKey("25.12")

	cust, err := loader.Customers(ctx, key)
	require.NoError(t, err)
	assert.True(t, cust.Scorable)
	require.Len(t, cust.Records, 5)
	assert.Equal(t, "C001", cust.Records[0].ID)
	assert.Equal(t, 1_200_000.0, cust.Records[0].Monetary)
	assert.Equal(t, 12, cust.Records[0].RecencyDays)

	bl, err := loader.Backlog(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", bl.AsOf.Format("2006-01-02"))
	require.Len(t, bl.Orders, 4)
	assert.NotNil(t, bl.Orders[0].ExpectedShip)
	assert.Nil(t, bl.Orders[1].ExpectedShip)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := snapshot.NewLoader(snapshottest.FS()).Dashboard(ctx, period.MustParseKey("25.12"))
	assert.ErrorIs(t, err, context.Canceled)
}
