// Command main runs the database seeder for Townsquare.
package main

import (
	"context"
	"flag"
	"log"

	"townsquare/internal/config"
	"townsquare/internal/database"
	"townsquare/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible content (0 picks one)")
	fast := flag.Bool("fast", false, "Hash passwords at minimum bcrypt cost")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *fast,
		RandSeed:    *randSeed,
	})
	summary, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d blocked words, %d users", summary.BlockedWords, summary.Users)
	for status, n := range summary.Posts {
		log.Printf("  %d posts %s", n, status)
	}
	log.Printf("  %d posts rejected by moderation", summary.Rejected)
	log.Printf("All test users have the password: %s", seed.DefaultPassword)
}
