package seed

import (
	"context"
	"fmt"
	"log/slog"

	"projectarium/internal/database"
	"projectarium/internal/middleware"
	"projectarium/internal/models"
	"projectarium/internal/repository"
	"projectarium/internal/service"

	"gorm.io/gorm"
)

// Options configures a seeding run. FollowDensity and LikeDensity are the
// probabilities that a user follows another user or likes a given project.
type Options struct {
	Users           int
	ProjectsPerUser int
	FollowDensity   float64
	LikeDensity     float64
	CommentsPerUser int
	Seed            int64
	BcryptCost      int
	WithBot         bool
}

// DefaultOptions is a small social graph suitable for local development.
var DefaultOptions = Options{
	Users:           25,
	ProjectsPerUser: 2,
	FollowDensity:   0.3,
	LikeDensity:     0.2,
	CommentsPerUser: 3,
	Seed:            1,
	WithBot:         true,
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Projects int
	Follows  int
	Likes    int
	Comments int
}

// Seeder populates a database. Relationship edges go through the services
// so milestone rewards are granted as they would be for real traffic.
type Seeder struct {
	db       *gorm.DB
	graph    *service.GraphService
	comments *service.CommentService
	bot      *service.WelcomeBot
}

// NewSeeder returns a Seeder for db. botUsername names the welcome bot account.
func NewSeeder(db *gorm.DB, botUsername string) *Seeder {
	store := repository.NewStore(db)
	graph := service.NewGraphService(store, nil)
	return &Seeder{
		db:       db,
		graph:    graph,
		comments: service.NewCommentService(store, nil),
		bot:      service.NewWelcomeBot(store, graph, nil, botUsername),
	}
}

// Run creates users, projects and the edges between them.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	f := NewFactory(s.db, opts.Seed, opts.BcryptCost)
	sum := &Summary{}

	if opts.WithBot {
		catalog, err := BotProjects()
		if err != nil {
			return nil, err
		}
		if _, err := s.bot.EnsureBot(ctx, catalog); err != nil {
			return nil, fmt.Errorf("ensure bot: %w", err)
		}
	}

	users := make([]*models.User, 0, opts.Users)
	var projects []*models.Project
	for range opts.Users {
		u, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
		for range opts.ProjectsPerUser {
			p, err := f.CreateProject(u)
			if err != nil {
				return nil, err
			}
			projects = append(projects, p)
		}
	}
	sum.Users = len(users)
	sum.Projects = len(projects)

	for _, a := range users {
		for _, b := range users {
			if a.ID == b.ID || !f.Chance(opts.FollowDensity) {
				continue
			}
			if _, err := s.graph.Follow(ctx, a.ID, b.ID); err != nil {
				if models.IsSoft(err) {
					continue
				}
				return nil, fmt.Errorf("follow %d -> %d: %w", a.ID, b.ID, err)
			}
			sum.Follows++
		}
	}

	for _, u := range users {
		for _, p := range projects {
			if !f.Chance(opts.LikeDensity) {
				continue
			}
			if _, err := s.graph.LikeProject(ctx, u.ID, p.ID); err != nil {
				if models.IsSoft(err) {
					continue
				}
				return nil, fmt.Errorf("like project %d: %w", p.ID, err)
			}
			sum.Likes++
		}
	}

	if len(projects) > 0 {
		for i, u := range users {
			for j := range opts.CommentsPerUser {
				p := projects[(i*opts.CommentsPerUser+j)%len(projects)]
				if _, err := s.comments.Create(ctx, p.ID, u.ID, f.CommentText(), nil); err != nil {
					return nil, fmt.Errorf("comment on project %d: %w", p.ID, err)
				}
				sum.Comments++
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "seeding complete",
		slog.Int("users", sum.Users),
		slog.Int("projects", sum.Projects),
		slog.Int("follows", sum.Follows),
		slog.Int("likes", sum.Likes),
		slog.Int("comments", sum.Comments),
	)
	return sum, nil
}

// ClearAll deletes every row of every persistent table, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	all := database.PersistentModels()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(all) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
				return fmt.Errorf("clear %T: %w", all[i], err)
			}
		}
		return nil
	})
}
