package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_identity_resolution_total",
		Help: "Bearer token resolutions by outcome.",
	}, []string{"outcome"})
	policyDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_policy_denied_total",
		Help: "Requests rejected because the route requires an identity.",
	})
)
