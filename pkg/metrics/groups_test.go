package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGroupMetrics(reg)

	m.IncCreated()
	m.IncCreated()
	m.IncCompleted()
	m.IncRetired()
	m.IncOccupant("carrier", false)
	m.IncOccupant("carrier", true)
	m.IncOccupant("carrier", true)
	m.IncRejection("role_already_filled")
	m.SetActive(4)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, 2.0, plainCounter(t, mfs, "importgroups_groups_created_total"))
	assert.Equal(t, 1.0, plainCounter(t, mfs, "importgroups_groups_completed_total"))
	assert.Equal(t, 1.0, plainCounter(t, mfs, "importgroups_groups_retired_total"))

	got, err := fetchCounterValue(mfs, "importgroups_group_rejections_total", "reason", "role_already_filled")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	occupants := findMetricFamily(mfs, "importgroups_group_occupants_total")
	require.NotNil(t, occupants)
	var principal float64
	for _, metric := range occupants.GetMetric() {
		if matchesLabel(metric.GetLabel(), "principal", "true") {
			principal = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, principal)

	active := findMetricFamily(mfs, "importgroups_groups_active")
	require.NotNil(t, active)
	assert.Equal(t, 4.0, active.GetMetric()[0].GetGauge().GetValue())
}

func TestGroupMetricsBlankLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGroupMetrics(reg)

	m.IncOccupant("", false)
	m.IncRejection("")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "importgroups_group_rejections_total", "reason", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "importgroups_group_occupants_total", "role", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestGroupMetricsNilSafe(t *testing.T) {
	var m *GroupMetrics
	assert.NotPanics(t, func() {
		m.IncCreated()
		m.IncCompleted()
		m.IncRetired()
		m.IncOccupant("importer", true)
		m.IncRejection("x")
		m.SetActive(1)
		NewGroupMetrics(nil).IncCreated()
	})
}

func plainCounter(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	require.NotNil(t, mf, name)
	require.Len(t, mf.GetMetric(), 1)
	return mf.GetMetric()[0].GetCounter().GetValue()
}
