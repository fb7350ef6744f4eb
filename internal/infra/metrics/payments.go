package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(paymentsTotal)
}

var paymentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "escrow_payments_total",
		Help: "Escrow payment transitions (created/completed/refunded).",
	},
	[]string{"status"},
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}
