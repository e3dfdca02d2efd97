package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Bahjat/structured-web-auditor/internal/model"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestMetrics_RecordPage(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewWithProvider(provider, "auditor-test")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPage(ctx, &model.PageAuditResult{Status: model.StatusPass}, 100)
	m.RecordPage(ctx, &model.PageAuditResult{Status: model.StatusFail}, 60)
	m.RecordPage(ctx, &model.PageAuditResult{Status: model.StatusFail, FetchError: "timeout"}, 70)

	data := collect(t, reader)

	audited, ok := data["auditor.pages.audited"].(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range audited.DataPoints {
		total += dp.Value
	}
	assert.EqualValues(t, 3, total)

	failed, ok := data["auditor.pages.failed"].(metricdata.Sum[int64])
	require.True(t, ok)
	total = 0
	for _, dp := range failed.DataPoints {
		total += dp.Value
	}
	assert.EqualValues(t, 2, total)

	scores, ok := data["auditor.page.score"].(metricdata.Histogram[int64])
	require.True(t, ok)
	var count uint64
	var sum int64
	for _, dp := range scores.DataPoints {
		count += dp.Count
		sum += dp.Sum
	}
	assert.EqualValues(t, 3, count)
	assert.EqualValues(t, 230, sum)
}

func TestSetup_Disabled(t *testing.T) {
	m, err := Setup(context.Background(), Settings{ServiceName: "auditor-test"}, nil)
	require.NoError(t, err)

	m.RecordPage(context.Background(), &model.PageAuditResult{Status: model.StatusPass}, 100)
	assert.NoError(t, m.Shutdown(context.Background()))
}
