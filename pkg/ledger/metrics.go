package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CapacityHours tracks the hours offered per period and skill
	CapacityHours = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "schedgraph_capacity_hours",
			Help: "Technician hours available in a period for a skill",
		},
		[]string{"period", "skill"},
	)

	// CapacityTotalHours tracks the total hours offered per period
	CapacityTotalHours = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "schedgraph_capacity_total_hours",
			Help: "Total technician hours available in a period",
		},
		[]string{"period"},
	)

	// LockedPeriods tracks the number of locked periods
	LockedPeriods = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedgraph_locked_periods",
			Help: "Number of periods locked against rescheduling",
		},
	)
)

func init() {
	prometheus.MustRegister(CapacityHours)
	prometheus.MustRegister(CapacityTotalHours)
	prometheus.MustRegister(LockedPeriods)
}
