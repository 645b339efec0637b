// Command initdb creates the library schema and exits. The server applies
// the same migrations at startup; this exists for provisioning a database
// ahead of the first deploy.
package main

import (
	"context"
	"fmt"
	"os"

	"shelf/internal/server/database"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error running migrations: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Database initialization completed.")
}
