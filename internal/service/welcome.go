package service

import (
	"context"

	"projectarium/internal/models"
	"projectarium/internal/notifications"
	"projectarium/internal/repository"

	"github.com/google/uuid"
)

// WelcomeMessage is the bot's first message to every new user.
const WelcomeMessage = "Welcome to Projectarium! In Projectarium, you can create a project and share it with the community!"

// BotProject is a project the platform bot owns from the start.
type BotProject struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
}

// DefaultBotProjects are the sponsored showcase projects of the bot.
var DefaultBotProjects = []BotProject{
	{Name: "Discasery", Description: "The first project ever shared here!", Link: "https://github.com/LordBugsy/Discasery"},
	{Name: "ReactTalk", Description: "A chat application made with React and MongoDB!", Link: "https://github.com/LordBugsy/ReactTalk"},
	{Name: "Projectarium", Description: "A project sharing platform!", Link: "https://github.com/LordBugsy/Projectarium"},
}

// WelcomeBot is the platform account that greets new users.
type WelcomeBot struct {
	store    *repository.Store
	graph    *GraphService
	notifier Notifier
	username string
}

func NewWelcomeBot(store *repository.Store, graph *GraphService, notifier Notifier, username string) *WelcomeBot {
	return &WelcomeBot{store: store, graph: graph, notifier: notifierOrNoop(notifier), username: username}
}

// Username returns the bot's account name.
func (b *WelcomeBot) Username() string {
	return b.username
}

// EnsureBot creates the bot account and its sponsored projects if missing.
// The bot's password is random; nobody logs in as the bot.
func (b *WelcomeBot) EnsureBot(ctx context.Context, projects []BotProject) (*models.User, error) {
	if existing, err := b.store.Users.GetByUsername(ctx, b.username); err == nil {
		return existing, nil
	} else if !models.IsNotFound(err) {
		return nil, err
	}
	hash, err := hashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	bot := &models.User{
		Username:      b.username,
		DisplayName:   "Projectarium Bot",
		Password:      hash,
		Description:   "I am a bot here to help you get started with the platform!",
		ProfileColour: 8,
		IsVerified:    true,
		Role:          models.RoleAdmin,
	}
	err = b.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.Create(ctx, bot); err != nil {
			return err
		}
		for _, p := range projects {
			project := &models.Project{
				Name:        p.Name,
				Description: p.Description,
				Link:        p.Link,
				OwnerID:     bot.ID,
				Status:      models.ProjectStatusSponsored,
			}
			if err := tx.Projects.Create(ctx, project); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bot, nil
}

// Welcome makes the bot follow userID and starts a thread with the welcome
// message. It does nothing when the bot account does not exist.
func (b *WelcomeBot) Welcome(ctx context.Context, userID uint) error {
	var threadID uint
	var botID uint
	err := b.store.Transaction(ctx, func(tx *repository.Store) error {
		bot, err := tx.Users.GetByUsername(ctx, b.username)
		if err != nil {
			return err
		}
		botID = bot.ID
		if _, err := b.graph.follow(ctx, tx, bot.ID, userID); err != nil && !models.IsSoft(err) {
			return err
		}
		if _, err := tx.Chats.CreateThreadIfAbsent(ctx, bot.ID, userID); err != nil {
			return err
		}
		thread, err := tx.Chats.FindThread(ctx, bot.ID, userID)
		if err != nil {
			return err
		}
		threadID = thread.ID
		if err := tx.Chats.AppendMessage(ctx, &models.ChatMessage{ThreadID: thread.ID, SenderID: bot.ID, Text: WelcomeMessage}); err != nil {
			return err
		}
		_, err = tx.Chats.AddPrivateChat(ctx, userID, bot.ID)
		return err
	})
	if err != nil {
		if botID == 0 && models.IsNotFound(err) {
			return nil
		}
		return err
	}
	b.notifier.Notify(ctx, userID, notifications.EventMessageReceived, map[string]any{
		"thread_id": threadID,
		"sender_id": botID,
	})
	return nil
}
