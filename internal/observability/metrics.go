package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TrackingLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_lookups_total",
			Help: "Application number lookups by outcome",
		},
		[]string{"result"},
	)

	LiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracking_live_subscriptions",
			Help: "Open live update subscriptions",
		},
	)

	LiveUpdatesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracking_live_updates_delivered_total",
			Help: "Application updates handed to a live subscription",
		},
	)

	LiveUpdatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracking_live_updates_dropped_total",
			Help: "Application updates dropped because a subscriber was not keeping up",
		},
	)

	ApplicationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_applications_submitted_total",
			Help: "Loan application submissions by outcome",
		},
		[]string{"result"},
	)

	EMICalculations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emi_calculations_total",
			Help: "EMI calculator requests served",
		},
	)
)
