package main

import (
	"context"
	"flag"
	"log"
	"time"

	"chat-with-pdf-be/internal/config"
	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/repository/implementation"
	"chat-with-pdf-be/pkg/database"
)

func main() {
	wipe := flag.Bool("wipe", false, "delete every row of the remote table after migrating")
	flag.Parse()

	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.RemoteDB.Validate(); err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 2. Connect to the remote vector store
	db, err := database.NewRemoteVectorDB(ctx, database.GormConfig{
		Host:     cfg.RemoteDB.Address,
		Port:     cfg.RemoteDB.Port,
		User:     cfg.RemoteDB.User,
		Password: cfg.RemoteDB.Password,
		DBName:   cfg.RemoteDB.DBName,
		SSLMode:  cfg.RemoteDB.SSLMode,
	})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	repo := implementation.NewChunkEmbeddingRepository(db)

	// 3. Extension and table
	log.Printf("Step 1: Ensuring vector extension and table %q...", constant.RemoteTableName)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Error: Migration failed: %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("Error: Failed to count rows: %v", err)
	}
	log.Printf("Step 2: Table %q holds %d rows", constant.RemoteTableName, count)

	if *wipe {
		removed, err := repo.DeleteAll(ctx)
		if err != nil {
			log.Fatalf("Error: Failed to clear table: %v", err)
		}
		log.Printf("Step 3: Removed %d rows", removed)
	}

	log.Println("Migration completed successfully.")
}
