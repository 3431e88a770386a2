package client

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var relayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "remote_config_client",
		Name:      "relay_requests_total",
		Help:      "Relay calls made by the SDK by operation and HTTP status (0 when unreachable).",
	},
	[]string{"op", "code"},
)

func observe(op string, statusCode int, _ error) {
	relayRequestsTotal.WithLabelValues(op, strconv.Itoa(statusCode)).Inc()
}
