package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credential module.
type Metrics struct {
	CredentialsIssued prometheus.Counter
	Verifications     *prometheus.CounterVec
	Revocations       prometheus.Counter
	Disclosures       prometheus.Counter
	ShareCacheLookups *prometheus.CounterVec
}

// New creates and registers all credential module metrics.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_credentials_issued_total",
			Help: "Total number of credentials issued",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_credential_verifications_total",
			Help: "Total number of credential verifications by trust policy and outcome",
		}, []string{"policy", "outcome"}),
		Revocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_credential_revocations_total",
			Help: "Total number of credential revocations",
		}),
		Disclosures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_credential_disclosures_total",
			Help: "Total number of selective disclosure proofs generated",
		}),
		ShareCacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_share_cache_lookups_total",
			Help: "Total number of share token cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementCredentialsIssued() {
	if m != nil {
		m.CredentialsIssued.Inc()
	}
}

func (m *Metrics) IncrementVerifications(policy string, valid bool) {
	if m != nil {
		outcome := "invalid"
		if valid {
			outcome = "valid"
		}
		m.Verifications.WithLabelValues(policy, outcome).Inc()
	}
}

func (m *Metrics) IncrementRevocations() {
	if m != nil {
		m.Revocations.Inc()
	}
}

func (m *Metrics) IncrementDisclosures() {
	if m != nil {
		m.Disclosures.Inc()
	}
}

func (m *Metrics) IncrementShareCacheLookup(hit bool) {
	if m != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.ShareCacheLookups.WithLabelValues(result).Inc()
	}
}
