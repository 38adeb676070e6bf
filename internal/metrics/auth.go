package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Defined in a standalone package to avoid
// import cycles between the auth core and HTTP packages.

var (
	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Pares access/refresh emitidos, por tipo de contexto",
	}, []string{"context_type"})

	TokenLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_lookups_total",
		Help: "Validaciones de tokens, por namespace y resultado (hit|miss)",
	}, []string{"namespace", "result"})

	TokensRevoked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_tokens_revoked_total",
		Help: "Tokens eliminados explícitamente, por namespace",
	}, []string{"namespace"})

	TOTPChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_totp_checks_total",
		Help: "Verificaciones TOTP, por resultado (ok|mismatch|expected)",
	}, []string{"result"})

	ClientAuthFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_client_credential_failures_total",
		Help: "Autenticaciones de cliente rechazadas",
	})
)

// RegisterAuth registers the auth metrics on the given registry (or default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		TokensIssued,
		TokenLookups,
		TokensRevoked,
		TOTPChecks,
		ClientAuthFailures,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
