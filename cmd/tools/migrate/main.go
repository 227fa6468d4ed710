package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/noah-isme/boutique-pos/internal/app"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the SQL migrations")
	direction := flag.String("direction", "up", "up or down")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := app.RunMigrations(dbURL, *dir, app.MigrateDirection(*direction)); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migrations %s applied from %s", *direction, *dir)
}
