package waspweb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waspweb_uploads_total",
			Help: "Total number of asset uploads by bucket and status.",
		},
		[]string{"bucket", "status"},
	)

	publicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waspweb_publications_total",
			Help: "Total number of script publications by operation and status.",
		},
		[]string{"op", "status"},
	)

	adminSignInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waspweb_admin_sign_ins_total",
			Help: "Total number of admin service account sign-in attempts by status.",
		},
		[]string{"status"},
	)
)
