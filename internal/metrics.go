package internal

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	signRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatmsg_sign_requests_total",
			Help: "Signed URL requests by result.",
		},
		[]string{"result"},
	)

	signDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatmsg_sign_duration_seconds",
			Help:    "Time spent signing a single attachment URL.",
			Buckets: prometheus.DefBuckets,
		},
	)

	renderedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatmsg_rendered_messages_total",
			Help: "Rendered messages by type.",
		},
		[]string{"type"},
	)

	staleResolutions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatmsg_stale_resolutions_total",
			Help: "Attachment resolutions discarded because a newer message was shown.",
		},
	)

	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatmsg_actions_total",
			Help: "Copy and download actions by result.",
		},
		[]string{"action", "result"},
	)
)

func init() {
	prometheus.MustRegister(signRequests)
	prometheus.MustRegister(signDuration)
	prometheus.MustRegister(renderedMessages)
	prometheus.MustRegister(staleResolutions)
	prometheus.MustRegister(actionsTotal)
}

// InstrumentSigner records request counts and latency for s
func InstrumentSigner(s Signer) Signer {
	return SignerFunc(func(ctx context.Context, key string) (string, error) {
		start := time.Now()
		u, err := s.SignURL(ctx, key)
		signDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			signRequests.WithLabelValues("error").Inc()
			return "", err
		}
		signRequests.WithLabelValues("ok").Inc()
		return u, nil
	})
}

func recordAction(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	actionsTotal.WithLabelValues(action, result).Inc()
}
