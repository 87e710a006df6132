package main

import (
	"flag"
	"log"

	"pos-backoffice/internal/config"
	"pos-backoffice/internal/repository"
	"pos-backoffice/internal/service"
	"pos-backoffice/pkg/database"
)

func main() {
	cfg := config.Load()

	email := flag.String("email", cfg.SeedAdminEmail, "account to reset")
	password := flag.String("password", cfg.SeedAdminPassword, "new password")
	flag.Parse()

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	auth := service.NewAuthService(repository.NewUserRepo(db))
	if err := auth.SetPassword(*email, *password); err != nil {
		log.Fatalf("❌ Failed to reset password for %s: %v", *email, err)
	}

	log.Printf("✅ Password for %s has been reset; existing sessions were signed out", *email)
}
