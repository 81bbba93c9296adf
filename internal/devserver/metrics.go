package devserver

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricCollector struct {
	publishedCounter *prometheus.CounterVec
	deliveredCounter prometheus.Counter
	subscriberGauge  *prometheus.GaugeVec
	requestCounter   *prometheus.CounterVec
	markedReadCount  prometheus.Counter
}

func newMetricCollector(reg prometheus.Registerer) *metricCollector {
	mc := &metricCollector{
		publishedCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "hostel_intray_notifications_published_total", Help: "Notifications created"},
			[]string{"type"}),

		deliveredCounter: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "hostel_intray_frames_delivered_total", Help: "Notification frames handed to subscribers"}),

		subscriberGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "hostel_intray_stream_subscribers", Help: "Connected stream subscribers"},
			[]string{"transport"}),

		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "hostel_intray_http_requests_total", Help: "HTTP requests served"},
			[]string{"method", "route", "status"}),

		markedReadCount: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "hostel_intray_notifications_marked_read_total", Help: "Notifications flipped to read"}),
	}

	reg.MustRegister(
		mc.publishedCounter,
		mc.deliveredCounter,
		mc.subscriberGauge,
		mc.requestCounter,
		mc.markedReadCount,
	)
	return mc
}
