package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	orderSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pizzaflow",
			Name:      "order_submitted_total",
			Help:      "Count of committed orders by type and flow.",
		},
		[]string{"type", "flow"},
	)

	orderRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pizzaflow",
			Name:      "order_rejected_total",
			Help:      "Count of submissions refused by reason.",
		},
		[]string{"reason"},
	)

	overbooking = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pizzaflow",
			Name:      "overbooking_total",
			Help:      "Count of submissions past slot capacity by verdict.",
		},
		[]string{"verdict"},
	)

	staffDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pizzaflow",
			Name:      "staff_decision_total",
			Help:      "Count of staff decisions over orders.",
		},
		[]string{"decision"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pizzaflow",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	guardWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pizzaflow",
			Name:      "guard_wait_seconds",
			Help:      "Time spent waiting for booking locks.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2},
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(orderSubmitted, orderRejected, overbooking, staffDecision, httpRequests, guardWait)
	})
}

func IncOrderSubmitted(orderType, flow string) {
	orderSubmitted.WithLabelValues(orderType, flow).Inc()
}

func IncOrderRejected(reason string) {
	orderRejected.WithLabelValues(reason).Inc()
}

func IncOverbooking(verdict string) {
	overbooking.WithLabelValues(verdict).Inc()
}

func IncStaffDecision(decision string) {
	staffDecision.WithLabelValues(decision).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func ObserveGuardWait(d time.Duration) {
	guardWait.Observe(d.Seconds())
}
