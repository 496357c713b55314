// Command main runs the database seeder for Projectarium.
package main

import (
	"context"
	"flag"
	"log"

	"projectarium/internal/config"
	"projectarium/internal/database"
	"projectarium/internal/seed"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.Users, "users", opts.Users, "Number of users to create")
	flag.IntVar(&opts.ProjectsPerUser, "projects", opts.ProjectsPerUser, "Projects per user")
	flag.IntVar(&opts.CommentsPerUser, "comments", opts.CommentsPerUser, "Comments per user")
	flag.Float64Var(&opts.FollowDensity, "follow-density", opts.FollowDensity, "Probability that one user follows another")
	flag.Float64Var(&opts.LikeDensity, "like-density", opts.LikeDensity, "Probability that a user likes a project")
	flag.Int64Var(&opts.Seed, "seed", opts.Seed, "Random seed")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	flag.Parse()

	log.Printf("Target: %d users, %d projects each, clean=%v", opts.Users, opts.ProjectsPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	opts.WithBot = cfg.BotUsername != ""

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	ctx := context.Background()
	s := seed.NewSeeder(db, cfg.BotUsername)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d projects, %d follows, %d likes, %d comments",
		sum.Users, sum.Projects, sum.Follows, sum.Likes, sum.Comments)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
