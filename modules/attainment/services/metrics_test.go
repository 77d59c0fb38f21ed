package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/attainment-reports/pkg/eventbus"
	"github.com/jacksonlee411/attainment-reports/pkg/metrics"
)

func TestMetrics_CountsGenerationEvents(t *testing.T) {
	reg := metrics.NewRegistry()
	m := NewMetrics(reg.Factory())
	bus := eventbus.NewEventPublisher(nil)
	m.Subscribe(bus)

	w := newFakeWriter()
	w.panicOn["Zed (9)"] = true
	_, err := NewGenerator(w, bus, nil).Generate(context.Background(), orgTable(), GenerateOptions{
		OutputRoot: t.TempDir(),
		Date:       runDate,
	})
	require.NoError(t, err)

	require.Equal(t, 3.0, testutil.ToFloat64(m.written.WithLabelValues("NA")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failed))
	require.Equal(t, 0.0, testutil.ToFloat64(m.skipped))
	require.Equal(t, 1, testutil.CollectAndCount(m.duration))
}
