package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity module.
type Metrics struct {
	DIDsCreated        prometheus.Counter
	PrivateKeyReveals  prometheus.Counter
	CurrentDIDSwitches prometheus.Counter
}

// New creates and registers all identity module metrics.
func New() *Metrics {
	return &Metrics{
		DIDsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_dids_created_total",
			Help: "Total number of DIDs created",
		}),
		PrivateKeyReveals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_private_key_reveals_total",
			Help: "Total number of owner private key reveals",
		}),
		CurrentDIDSwitches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_current_did_switches_total",
			Help: "Total number of explicit current-DID switches",
		}),
	}
}

func (m *Metrics) IncrementDIDsCreated() {
	if m != nil {
		m.DIDsCreated.Inc()
	}
}

func (m *Metrics) IncrementPrivateKeyReveals() {
	if m != nil {
		m.PrivateKeyReveals.Inc()
	}
}

func (m *Metrics) IncrementCurrentDIDSwitches() {
	if m != nil {
		m.CurrentDIDSwitches.Inc()
	}
}
