package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectarium_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RelationshipMutations counts graph edge writes by edge kind and outcome.
	RelationshipMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectarium_relationship_mutations_total",
		Help: "Relationship edge mutations by kind (follow, project_like, comment_like) and outcome",
	}, []string{"kind", "outcome"})

	// MilestonesGranted counts milestone rewards by policy.
	MilestonesGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectarium_milestones_granted_total",
		Help: "Milestone rewards granted by policy",
	}, []string{"policy"})

	// CreditsGranted sums credits added to users by source.
	CreditsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectarium_credits_granted_total",
		Help: "Credits granted by source",
	}, []string{"source"})

	// CascadeDeletions counts cascading deletions by entity and result.
	CascadeDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectarium_cascade_deletions_total",
		Help: "Cascading deletions by entity (user, project) and result",
	}, []string{"entity", "result"})

	// ChannelsOpened counts OpenChannel calls that found or created a thread.
	ChannelsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectarium_channels_opened_total",
		Help: "Private channels opened, labelled by whether a thread was created",
	}, []string{"created"})

	// NotificationsPublished counts published notification events by type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectarium_notifications_published_total",
		Help: "Notification events published to Redis by type",
	}, []string{"event_type"})

	// WebSocketConnectionsTotal is the gauge of active notification stream connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "projectarium_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})
)
