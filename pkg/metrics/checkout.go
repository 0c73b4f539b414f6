package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Commit outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeFailed     = "failed"
	OutcomeRejected   = "rejected"
	OutcomeInProgress = "in_progress"
)

// CheckoutMetrics records order commit, coupon and notification activity.
type CheckoutMetrics struct {
	commits        *prometheus.CounterVec
	commitDuration *prometheus.HistogramVec
	couponRejected *prometheus.CounterVec
	compensations  *prometheus.CounterVec
	notifications  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_commits_total",
		Help: "Order commit attempts by outcome.",
	}, []string{"outcome"})
	commitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_commit_duration_seconds",
		Help:    "Duration of order commits in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	couponRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_rejections_total",
		Help: "Coupon validations rejected by reason.",
	}, []string{"reason"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_compensations_total",
		Help: "Compensating actions run after partial commit failures.",
	}, []string{"result"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatch_total",
		Help: "Order confirmation dispatches by result.",
	}, []string{"result"})
	reg.MustRegister(commits, commitDuration, couponRejected, compensations, notifications)
	return &CheckoutMetrics{
		commits:        commits,
		commitDuration: commitDuration,
		couponRejected: couponRejected,
		compensations:  compensations,
		notifications:  notifications,
	}
}

// ObserveCommit records a finished commit attempt.
func (m *CheckoutMetrics) ObserveCommit(outcome string, duration time.Duration) {
	if m == nil || m.commits == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.commits.WithLabelValues(label).Inc()
	m.commitDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncCouponRejected counts a rejected coupon by reason.
func (m *CheckoutMetrics) IncCouponRejected(reason string) {
	if m == nil || m.couponRejected == nil {
		return
	}
	m.couponRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCompensation counts a compensating action by result.
func (m *CheckoutMetrics) IncCompensation(ok bool) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(resultLabel(ok)).Inc()
}

// IncNotification counts a confirmation dispatch by result.
func (m *CheckoutMetrics) IncNotification(ok bool) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(resultLabel(ok)).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
