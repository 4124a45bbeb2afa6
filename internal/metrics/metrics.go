// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "microblog"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	Tweets          *prometheus.CounterVec
	Likes           *prometheus.CounterVec
	Follows         *prometheus.CounterVec
	MediaUploads    *prometheus.CounterVec
	AuthFailures    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Go runtime and
// process collectors are registered too.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		Tweets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tweets_total",
			Help:      "Tweets created and deleted.",
		}, []string{"action"}),
		Likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "likes_total",
			Help:      "Likes added and removed.",
		}, []string{"action"}),
		Follows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "follows_total",
			Help:      "Follow edges added and removed.",
		}, []string{"action"}),
		MediaUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_uploads_total",
			Help:      "Media uploads by outcome.",
		}, []string{"result"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected api keys by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.RequestDuration,
		m.Tweets,
		m.Likes,
		m.Follows,
		m.MediaUploads,
		m.AuthFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) TweetCreated() {
	if m != nil {
		m.Tweets.WithLabelValues("created").Inc()
	}
}

func (m *Metrics) TweetDeleted() {
	if m != nil {
		m.Tweets.WithLabelValues("deleted").Inc()
	}
}

func (m *Metrics) Liked() {
	if m != nil {
		m.Likes.WithLabelValues("added").Inc()
	}
}

func (m *Metrics) Unliked() {
	if m != nil {
		m.Likes.WithLabelValues("removed").Inc()
	}
}

func (m *Metrics) Followed() {
	if m != nil {
		m.Follows.WithLabelValues("added").Inc()
	}
}

func (m *Metrics) Unfollowed() {
	if m != nil {
		m.Follows.WithLabelValues("removed").Inc()
	}
}

// MediaUploaded records an upload outcome: "stored" or "rejected".
func (m *Metrics) MediaUploaded(result string) {
	if m != nil {
		m.MediaUploads.WithLabelValues(result).Inc()
	}
}

// AuthFailed records a rejected request: "missing" or "invalid".
func (m *Metrics) AuthFailed(reason string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(reason).Inc()
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
	}
}
