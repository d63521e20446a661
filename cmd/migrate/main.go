package main

import (
	"context"
	"log"
	"os"

	"signaware-be/internal/model"
	"signaware-be/pkg/database"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	ctx := context.Background()

	// 2. Pre-Migration: extensions that AutoMigrate cannot create. Done over
	// a plain pgx connection so migration failures are easy to tell apart
	// from ORM issues.
	color.Cyan("Step 1: Setting up extensions...")

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("Error: Failed to connect to database: %v", err)
	}

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if _, err := conn.Exec(ctx, sql); err != nil {
			color.Yellow("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}
	conn.Close(ctx)

	// 3. AutoMigrate All Models
	color.Cyan("Step 2: Running AutoMigrate...")

	db, err := database.NewGormDB(dsn)
	if err != nil {
		log.Fatalf("Error: Failed to connect GORM: %v", err)
	}

	models := []interface{}{
		&model.User{},
		&model.EmailVerificationToken{},
		&model.Document{},
		&model.ChatMessage{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Migration failed: %v", err)
		os.Exit(1)
	}

	color.Green("Migration completed: %d tables up to date", len(models))
}
