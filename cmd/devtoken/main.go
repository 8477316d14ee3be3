package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
	pkgjwt "github.com/johnquangdev/meeting-copilot/pkg/jwt"
)

// devtoken prints bearer tokens for local testing. With -seed it also creates
// the test users.
func main() {
	seed := flag.Bool("seed", false, "create the test users in the database")
	flag.Parse()

	log.Println("🚀 Generating development tokens...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("Refusing to issue development tokens in production")
	}

	jwtManager := pkgjwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)

	testUsers := []struct {
		Email string
		Name  string
	}{
		{Email: "alice@test.local", Name: "Alice"},
		{Email: "bob@test.local", Name: "Bob"},
		{Email: "charlie@test.local", Name: "Charlie"},
	}

	users := make([]*entities.User, 0, len(testUsers))
	for _, tu := range testUsers {
		users = append(users, &entities.User{
			ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+tu.Email)),
			Email:    tu.Email,
			Name:     tu.Name,
			IsActive: true,
		})
	}

	if *seed {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		for _, u := range users {
			if err := db.Where("email = ?", u.Email).FirstOrCreate(u).Error; err != nil {
				log.Fatalf("Failed to create user %s: %v", u.Email, err)
			}
		}
		log.Printf("✅ Seeded %d test users\n", len(users))
	}

	for _, u := range users {
		token, err := jwtManager.GenerateAccessToken(u.ID, u.Email)
		if err != nil {
			log.Fatalf("Failed to generate token for %s: %v", u.Email, err)
		}
		fmt.Printf("%s (%s)\n  %s\n", u.Email, u.ID, token)
	}
}
