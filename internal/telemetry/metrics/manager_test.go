package metrics

import (
	"testing"

	promcl "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CountersRegistered(t *testing.T) {
	manager, registry := NewTestManagerAndRegistry()
	require.NotNil(t, manager)

	manager.CounterPREventsCreated.Add(3)
	manager.CounterScopesRecomputed.Inc()
	manager.GaugeLifeSignal.Set(1)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]*promcl.MetricFamily)
	for _, mf := range metricFamilies {
		byName[mf.GetName()] = mf
	}

	prEvents, ok := byName["backend_test_server_pr_events_created"]
	require.True(t, ok)
	require.Len(t, prEvents.GetMetric(), 1)
	assert.Equal(t, float64(3), prEvents.GetMetric()[0].GetCounter().GetValue())

	scopes, ok := byName["backend_test_server_pr_scopes_recomputed"]
	require.True(t, ok)
	assert.Equal(t, float64(1), scopes.GetMetric()[0].GetCounter().GetValue())

	lifeSignal, ok := byName["backend_test_server_life_signal"]
	require.True(t, ok)
	assert.Equal(t, float64(1), lifeSignal.GetMetric()[0].GetGauge().GetValue())
}
