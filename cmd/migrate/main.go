package main

import (
	"context"
	"log"
	"time"

	"doc-review-be/internal/config"
	"doc-review-be/pkg/vectorstore"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Vector.DSN == "" {
		log.Fatal("Error: VECTOR_DSN (or DB_CONNECTION_STRING) is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 2. Connect to pgvector (enables the extension)
	backend, err := vectorstore.NewPgVectorBackend(cfg.Vector.DSN, true)
	if err != nil {
		log.Fatal("Error: Failed to build pgvector backend:", err)
	}
	defer backend.Close()

	if err := backend.Connect(ctx); err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. Create one table per collection
	collections := []string{
		cfg.Vector.SessionsCollection,
		cfg.Vector.IssuesCollection,
		cfg.Vector.ChunksCollection,
		cfg.Vector.TurnsCollection,
	}
	for _, name := range collections {
		if err := backend.EnsureCollection(ctx, name, cfg.Vector.EmbeddingDim); err != nil {
			log.Fatalf("Error: Failed to create collection %s: %v", name, err)
		}
		log.Printf("Collection ready: %s (dim %d)", name, cfg.Vector.EmbeddingDim)
	}

	log.Println("Migration completed successfully.")
}
