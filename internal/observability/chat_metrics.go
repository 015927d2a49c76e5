package observability

import "github.com/prometheus/client_golang/prometheus"

// Chat domain metrics. Labels are fixed enums so cardinality stays bounded.
var (
	// ConversationsCreated counts conversations opened by visitors.
	ConversationsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_conversations_created_total",
		Help: "Conversations opened by visitors.",
	})

	// ConversationsEnded counts conversations ended, by who ended them
	// ("visitor", "admin" or "unknown") and how ("closed" or "deleted").
	ConversationsEnded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_conversations_ended_total",
		Help: "Conversations closed or deleted.",
	}, []string{"by", "how"})

	// MessagesSent counts stored chat messages by sender role.
	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Chat messages stored, by sender.",
	}, []string{"sender"})

	// RateLimited counts requests rejected by a fixed-window limiter.
	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_rejected_total",
		Help: "Requests rejected by a fixed-window limiter, by scope.",
	}, []string{"scope"})

	// StreamSubscribers gauges open conversation event streams.
	StreamSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_stream_subscribers",
		Help: "Open conversation event streams.",
	})

	// EventsDropped counts events a slow stream subscriber missed.
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_events_dropped_total",
		Help: "Events dropped because a subscriber was not keeping up.",
	})
)

func init() {
	prometheus.MustRegister(
		ConversationsCreated,
		ConversationsEnded,
		MessagesSent,
		RateLimited,
		StreamSubscribers,
		EventsDropped,
	)
}
