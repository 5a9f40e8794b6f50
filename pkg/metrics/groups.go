package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// GroupMetrics tracks the import group lifecycle. All methods are nil-safe.
type GroupMetrics struct {
	created    prometheus.Counter
	completed  prometheus.Counter
	retired    prometheus.Counter
	occupants  *prometheus.CounterVec
	rejections *prometheus.CounterVec
	active     prometheus.Gauge
}

// NewGroupMetrics registers the group metrics on reg.
func NewGroupMetrics(reg prometheus.Registerer) *GroupMetrics {
	if reg == nil {
		return &GroupMetrics{}
	}
	m := &GroupMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_created_total",
			Help:      "Import groups created.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_completed_total",
			Help:      "Import groups that filled every role.",
		}),
		retired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_retired_total",
			Help:      "Import groups removed from the active set.",
		}),
		occupants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_occupants_total",
			Help:      "Role slots filled, by role and whether the occupant is the principal user.",
		}, []string{"role", "principal"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_rejections_total",
			Help:      "Rejected occupant additions, by reason.",
		}, []string{"reason"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "groups_active",
			Help:      "Import groups currently in the active set.",
		}),
	}
	reg.MustRegister(m.created, m.completed, m.retired, m.occupants, m.rejections, m.active)
	return m
}

func (m *GroupMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *GroupMetrics) IncCompleted() {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.Inc()
}

func (m *GroupMetrics) IncRetired() {
	if m == nil || m.retired == nil {
		return
	}
	m.retired.Inc()
}

func (m *GroupMetrics) IncOccupant(role string, principal bool) {
	if m == nil || m.occupants == nil {
		return
	}
	m.occupants.WithLabelValues(normalizeLabel(role), strconv.FormatBool(principal)).Inc()
}

func (m *GroupMetrics) IncRejection(reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// SetActive records the size of the active set.
func (m *GroupMetrics) SetActive(n int) {
	if m == nil || m.active == nil {
		return
	}
	m.active.Set(float64(n))
}
