// Package metrics implements serard.Observer on top of a Prometheus
// registry, so a running node's TX/RX counters can be scraped the same
// way as any other service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/coderkalyan/goserard/pkg/serard"
)

// Observer is a Prometheus-backed serard.Observer. The zero value is not
// usable; construct one with New.
type Observer struct {
	framesTransmitted prometheus.Counter
	framesAccepted    prometheus.Counter
	headerCRCErrors   prometheus.Counter
	payloadCRCErrors  prometheus.Counter
	activeSessions    prometheus.Gauge
}

// New registers the serard counters and gauge on reg and returns an
// Observer ready to attach to a serard.Serard via SetObserver. Passing a
// fresh prometheus.NewRegistry() keeps these metrics isolated from the
// global default registry, which is useful for running more than one
// node in a single process.
func New(reg prometheus.Registerer) *Observer {
	return &Observer{
		framesTransmitted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "serard_frames_transmitted_total",
			Help: "Total number of frames successfully handed to the transport.",
		}),
		framesAccepted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "serard_frames_accepted_total",
			Help: "Total number of transfers reassembled and delivered to a subscriber.",
		}),
		headerCRCErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "serard_header_crc_errors_total",
			Help: "Total number of frames discarded for a bad wire header.",
		}),
		payloadCRCErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "serard_payload_crc_errors_total",
			Help: "Total number of frames discarded for a bad transfer CRC.",
		}),
		activeSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "serard_active_sessions",
			Help: "Current number of per-source RX sessions held across all subscriptions.",
		}),
	}
}

func (o *Observer) FrameTransmitted() { o.framesTransmitted.Inc() }
func (o *Observer) FrameAccepted()    { o.framesAccepted.Inc() }
func (o *Observer) HeaderCRCError()   { o.headerCRCErrors.Inc() }
func (o *Observer) PayloadCRCError()  { o.payloadCRCErrors.Inc() }

func (o *Observer) SessionCountChanged(active int) {
	o.activeSessions.Set(float64(active))
}

var _ serard.Observer = (*Observer)(nil)
