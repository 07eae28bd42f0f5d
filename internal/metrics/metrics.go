package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ChatRequests   prometheus.Counter
	ChatFailures   prometheus.Counter
	Transcriptions prometheus.Counter
	Analyses       *prometheus.CounterVec
	ParseOutcomes  *prometheus.CounterVec
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			ChatRequests: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "casefile",
				Name:      "chat_requests_total",
				Help:      "Total chat completion requests sent to the model endpoint",
			}),
			ChatFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "casefile",
				Name:      "chat_failures_total",
				Help:      "Total chat completion requests that failed",
			}),
			Transcriptions: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "casefile",
				Name:      "transcriptions_total",
				Help:      "Total audio transcription requests",
			}),
			Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "casefile",
				Name:      "analyses_total",
				Help:      "Total completed analyses by kind",
			}, []string{"kind"}),
			ParseOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "casefile",
				Name:      "parse_outcomes_total",
				Help:      "Model response parse outcomes (structured, salvaged, defaulted)",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			global.ChatRequests,
			global.ChatFailures,
			global.Transcriptions,
			global.Analyses,
			global.ParseOutcomes,
		)
	})
	return global
}
