// internal/relay/metrics.go
package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_webhooks_total",
		Help: "Inbound provider webhooks by kind and outcome.",
	}, []string{"kind", "outcome"})

	providerSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_provider_sends_total",
		Help: "Outbound provider sends by media kind and outcome.",
	}, []string{"kind", "outcome"})

	crmMirrorFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_crm_mirror_failures_total",
		Help: "Best-effort CRM mirroring steps that failed (send still succeeded).",
	})
)
