package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		vouchersTotal,
		vouchersExpiredUnactivated,
	)
}

var (
	vouchersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vouchers_total",
			Help: "Voucher operations (minted/activated/transferred).",
		},
		[]string{"action"},
	)

	vouchersExpiredUnactivated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vouchers_expired_unactivated",
			Help: "Vouchers whose window passed without activation, per last sweep.",
		},
	)
)

func IncVoucher(action string) {
	vouchersTotal.WithLabelValues(norm(action)).Inc()
}

func SetVouchersExpiredUnactivated(n int) {
	vouchersExpiredUnactivated.Set(float64(n))
}
