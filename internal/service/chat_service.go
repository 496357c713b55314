package service

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"projectarium/internal/models"
	"projectarium/internal/notifications"
	"projectarium/internal/observability"
	"projectarium/internal/repository"

	"golang.org/x/sync/singleflight"
)

// MaxMessageLength bounds a chat message, in runes.
const MaxMessageLength = 2000

// ChatService owns private channels between mutually following users.
type ChatService struct {
	store    *repository.Store
	notifier Notifier
	open     singleflight.Group
}

func NewChatService(store *repository.Store, notifier Notifier) *ChatService {
	return &ChatService{store: store, notifier: notifierOrNoop(notifier)}
}

// ChannelResult is returned by OpenChannel. RequesterIndex and PeerIndex are
// the positions of the counterpart in each side's private_chats list.
type ChannelResult struct {
	Thread         *models.ChatThread `json:"thread"`
	Created        bool               `json:"created"`
	RequesterIndex int                `json:"requester_index"`
	PeerIndex      int                `json:"peer_index"`
}

// CanOpenChannel reports whether a and b follow each other.
func (s *ChatService) CanOpenChannel(ctx context.Context, a, b uint) (bool, error) {
	return mutualFollow(ctx, s.store, a, b)
}

// OpenChannel returns the thread for the pair, creating it when absent.
// Concurrent callers for the same pair share one database round trip; the
// unique pair index covers callers in other processes.
func (s *ChatService) OpenChannel(ctx context.Context, requesterID, peerID uint) (*ChannelResult, error) {
	if requesterID == peerID {
		return nil, models.NewValidationError("Cannot open a channel with yourself")
	}
	low, high := models.OrderedPair(requesterID, peerID)
	v, err, shared := s.open.Do(fmt.Sprintf("%d:%d", low, high), func() (interface{}, error) {
		return s.openChannel(ctx, low, high)
	})
	if err != nil {
		return nil, err
	}
	pair := v.(*pairChannel)
	result := &ChannelResult{
		Thread:         pair.thread,
		Created:        pair.created && (!shared || pair.claim()),
		RequesterIndex: pair.index[requesterID],
		PeerIndex:      pair.index[peerID],
	}
	if result.Created {
		observability.ChannelsOpened.WithLabelValues("true").Inc()
		s.notifier.Notify(ctx, peerID, notifications.EventChannelOpened, map[string]any{
			"thread_id": result.Thread.ID,
			"user_id":   requesterID,
		})
	} else {
		observability.ChannelsOpened.WithLabelValues("false").Inc()
	}
	return result, nil
}

type pairChannel struct {
	thread  *models.ChatThread
	created bool
	index   map[uint]int
	claimed atomic.Bool
}

// claim reports true to exactly one of the callers sharing a result.
func (p *pairChannel) claim() bool {
	return p.claimed.CompareAndSwap(false, true)
}

func (s *ChatService) openChannel(ctx context.Context, low, high uint) (*pairChannel, error) {
	ctx, span := observability.StartSpan(ctx, "ChatService.OpenChannel")
	out := &pairChannel{index: map[uint]int{}}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := lockUsers(ctx, tx, []uint{low, high}); err != nil {
			return err
		}
		ok, err := mutualFollow(ctx, tx, low, high)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewForbiddenError("Users must follow each other to open a channel").
				WithExtra("mutualFollow", false)
		}
		created, thread, err := findOrCreateThread(ctx, tx, low, high)
		if err != nil {
			return err
		}
		out.thread, out.created = thread, created
		for _, side := range [][2]uint{{low, high}, {high, low}} {
			idx, err := ensurePrivateChat(ctx, tx, side[0], side[1])
			if err != nil {
				return err
			}
			out.index[side[0]] = idx
		}
		return nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// findOrCreateThread relies on the pair index: the insert is a no-op when
// another transaction won, and the re-read returns the winner's row.
func findOrCreateThread(ctx context.Context, tx *repository.Store, a, b uint) (bool, *models.ChatThread, error) {
	created, err := tx.Chats.CreateThreadIfAbsent(ctx, a, b)
	if err != nil {
		return false, nil, err
	}
	thread, err := tx.Chats.FindThread(ctx, a, b)
	if err != nil {
		return false, nil, err
	}
	return created, thread, nil
}

// ensurePrivateChat adds peerID to userID's private chats and returns its position.
func ensurePrivateChat(ctx context.Context, tx *repository.Store, userID, peerID uint) (int, error) {
	if _, err := tx.Chats.AddPrivateChat(ctx, userID, peerID); err != nil {
		return 0, err
	}
	peers, err := tx.Chats.PrivateChatPeers(ctx, userID)
	if err != nil {
		return 0, err
	}
	return slices.Index(peers, peerID), nil
}

// SendMessage appends text to the thread and marks it unread. The channel
// stays usable after either side unfollows.
func (s *ChatService) SendMessage(ctx context.Context, threadID, senderID uint, text string) (*models.ChatMessage, error) {
	text, err := requiredText("Message", text, MaxMessageLength)
	if err != nil {
		return nil, err
	}
	var (
		msg    *models.ChatMessage
		peerID uint
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		thread, err := tx.Chats.GetThread(ctx, threadID)
		if err != nil {
			return err
		}
		if !thread.HasMember(senderID) {
			return models.NewForbiddenError("You are not a member of this chat")
		}
		// Locking both members keeps a concurrent deletion of either from
		// dropping the thread underneath the new message.
		members := thread.Members()
		if _, err := lockUsers(ctx, tx, members[:]); err != nil {
			return err
		}
		if _, err := tx.Chats.GetThread(ctx, threadID); err != nil {
			return err
		}
		peerID = thread.Peer(senderID)
		msg = &models.ChatMessage{ThreadID: threadID, SenderID: senderID, Text: text}
		if err := tx.Chats.AppendMessage(ctx, msg); err != nil {
			return err
		}
		return tx.Chats.SetState(ctx, threadID, models.ThreadStateUnread)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, peerID, notifications.EventMessageReceived, msg)
	return msg, nil
}

// ListThreads returns userID's threads, most recently active first.
func (s *ChatService) ListThreads(ctx context.Context, userID uint) ([]models.ChatThread, error) {
	threads, err := s.store.Chats.ListThreadsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range threads {
		members := threads[i].Members()
		summaries, err := s.store.Users.Summaries(ctx, members[:])
		if err != nil {
			return nil, err
		}
		threads[i].GroupChat = summaries
	}
	return threads, nil
}

// GetThread returns the thread with its messages. Only members may read it.
func (s *ChatService) GetThread(ctx context.Context, threadID, requesterID uint) (*models.ChatThread, error) {
	thread, err := s.store.Chats.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.HasMember(requesterID) {
		return nil, models.NewForbiddenError("You are not a member of this chat")
	}
	if thread.Messages, err = s.store.Chats.Messages(ctx, threadID); err != nil {
		return nil, err
	}
	members := thread.Members()
	if thread.GroupChat, err = s.store.Users.Summaries(ctx, members[:]); err != nil {
		return nil, err
	}
	return thread, nil
}

// MarkRead sets the thread state to read.
func (s *ChatService) MarkRead(ctx context.Context, threadID, requesterID uint) error {
	thread, err := s.store.Chats.GetThread(ctx, threadID)
	if err != nil {
		return err
	}
	if !thread.HasMember(requesterID) {
		return models.NewForbiddenError("You are not a member of this chat")
	}
	return s.store.Chats.SetState(ctx, threadID, models.ThreadStateRead)
}
