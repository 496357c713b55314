// Package notifications provides real-time notification delivery.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"projectarium/internal/middleware"
	"projectarium/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types published to user channels.
const (
	EventFollowed         = "followed"
	EventMilestoneReached = "milestone_reached"
	EventMessageReceived  = "message_received"
	EventChannelOpened    = "channel_opened"
	EventCommentOnProject = "comment_on_project"
	EventProjectLiked     = "project_liked"
)

const (
	userChannelPrefix  = "notifications:user:"
	userChannelPattern = "notifications:user:*"
)

// Event is the JSON envelope delivered to a user's notification stream.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Notify publishes an event to userID. Delivery is best effort: failures are
// logged and never returned to the caller.
func (n *Notifier) Notify(ctx context.Context, userID uint, eventType string, payload any) {
	if n == nil || n.rdb == nil || userID == 0 {
		return
	}
	raw, err := json.Marshal(Event{Type: eventType, Payload: payload, CreatedAt: time.Now().UTC()})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "notification encode failed", slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}
	if err := n.PublishUser(ctx, userID, string(raw)); err != nil {
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			slog.String("type", eventType),
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.NotificationsPublished.WithLabelValues(eventType).Inc()
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage
// with the target user ID and raw payload until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(userID uint, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", userChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				userID, ok := ParseUserChannel(msg.Channel)
				if !ok {
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(userID, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user ID from a channel built by UserChannel.
func ParseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
