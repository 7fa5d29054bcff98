package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nfekey_frames_processed_total",
		Help: "Frames handed to the scanner, by capture source",
	}, []string{"source"})

	KeysStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nfekey_keys_stored_total",
		Help: "Access keys accepted into the store",
	})

	Duplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nfekey_duplicates_total",
		Help: "Scans of access keys that were already recorded",
	})

	NoKeyPayloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nfekey_payloads_without_key_total",
		Help: "Decoded QR payloads with no 44-digit access key",
	})

	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nfekey_decode_failures_total",
		Help: "Frames the QR decoder could not process",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
