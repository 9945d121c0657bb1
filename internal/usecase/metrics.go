package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels for auth metrics.
const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpFederatedLogin = "federated_login"
	OpRequestReset   = "request_password_reset"
	OpVerifyReset    = "verify_reset_code"
	OpResetPassword  = "reset_password"
	OpUpdateProfile  = "update_profile"
)

const outcomeSuccess = "success"

// AuthOperations counts auth operations by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marketplace_auth_operations_total",
		Help: "Total number of authentication operations by outcome",
	},
	[]string{"operation", "outcome"},
)

// RegisterMetrics registers usecase metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthOperations)
}

func recordOutcome(operation string, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = KindOf(err).String()
	}
	AuthOperations.WithLabelValues(operation, outcome).Inc()
}
