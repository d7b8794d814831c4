package main

import (
	"log"
	"net/http"
	"os"

	"prompt-party/internal/config"
	"prompt-party/internal/db"
	"prompt-party/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	// The server runs without Postgres; sessions and games then live in
	// process memory only.
	conn, err := db.Open()
	if err != nil {
		log.Printf("running without database: %v", err)
		conn = nil
	} else {
		if err := db.Tune(conn, cfg); err != nil {
			log.Printf("failed to tune db pool: %v", err)
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	srv := server.New(conn, cfg)
	log.Printf("prompt-party server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
