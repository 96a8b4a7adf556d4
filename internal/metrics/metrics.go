// Package metrics registers the Prometheus collectors served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dating",
		Name:      "registrations_total",
		Help:      "Registration attempts by result.",
	}, []string{"result"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dating",
		Name:      "logins_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})

	Likes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dating",
		Name:      "likes_total",
		Help:      "Like attempts by result.",
	}, []string{"result"})

	NotificationsStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dating",
		Name:      "notifications_stored_total",
		Help:      "Like notifications written to inboxes by the worker.",
	})
)

// Result returns the result label for err
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
