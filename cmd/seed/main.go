package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/printdesk/idcard-api/config"
	"github.com/printdesk/idcard-api/pkg/helpers"
)

// Seeds the bootstrap admin account so a fresh install can log in.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@printdesk.local"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO accounts (name, email, password_hash, role, is_email_verified, has_completed_profile)
		VALUES ($1, LOWER($2), $3, 'admin', TRUE, TRUE)
		ON CONFLICT (email) DO UPDATE SET role = 'admin', is_email_verified = TRUE
		RETURNING id
	`, "Administrator", email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}
	fmt.Printf("seeded admin account: id=%s email=%s\n", id, email)
}
