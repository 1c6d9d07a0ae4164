package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		ipnCallbacksTotal,
		pointsCreditedTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment ledger transitions by status (pending/completed/failed/...).",
		},
		[]string{"status"},
	)

	ipnCallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipn_callbacks_total",
			Help: "Inbound IPN callbacks by outcome (accepted/replay/bad_signature/unknown_order/amount_mismatch/error).",
		},
		[]string{"outcome"},
	)

	pointsCreditedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "points_credited_total",
			Help: "Total points credited to user balances through reconciliation.",
		},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func IncIPN(outcome string) {
	ipnCallbacksTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddPointsCredited(points int64) {
	pointsCreditedTotal.Add(float64(points))
}
