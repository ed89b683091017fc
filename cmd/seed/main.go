package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"doc-review-be/internal/bootstrap"
	"doc-review-be/internal/config"
	"doc-review-be/internal/dto"
)

// Seeds one review session from a JSON file shaped like the start request body.
func main() {
	sessionId := flag.String("session", "demo-session", "session id to create")
	file := flag.String("file", "", "path to a start request JSON file")
	force := flag.Bool("force", false, "overwrite an existing session")
	flag.Parse()

	if *file == "" {
		log.Fatal("Error: -file is required")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Error: Failed to read %s: %v", *file, err)
	}

	var req dto.StartSessionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Fatalf("Error: Invalid seed file: %v", err)
	}

	cfg := config.Load()
	container := bootstrap.NewContainer(cfg)
	defer container.Close()

	res, err := container.SessionService.StartSession(context.Background(), *sessionId, &req, *force)
	if err != nil {
		log.Fatalf("Error: Failed to seed session: %v", err)
	}

	log.Printf("Seeded session %s (%s): %d issues, %d chunks, %d dropped citations",
		res.SessionId, res.Status, res.IssueCount, res.ChunkCount, res.DroppedCitationCount)
}
