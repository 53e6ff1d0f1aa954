package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// One-off maintenance tool: deletes stale pending claims (and their votes and
// media) that expired more than 30 days ago and were never finalized.
func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	// Connect to database
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Test connection
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	fmt.Println("✅ Connected to database")

	// Step 1: Delete votes on stale claims
	result, err := db.Exec(`
		DELETE FROM votes
		WHERE claim_id IN (
			SELECT id FROM claims
			WHERE status = 'PENDING'
			AND valid_till < NOW() - INTERVAL '30 days'
		)
	`)
	if err != nil {
		log.Printf("⚠️  Warning deleting votes: %v", err)
	} else {
		rows, _ := result.RowsAffected()
		fmt.Printf("🗑️  Deleted %d votes\n", rows)
	}

	// Step 2: Delete media on stale claims
	result, err = db.Exec(`
		DELETE FROM claim_media
		WHERE claim_id IN (
			SELECT id FROM claims
			WHERE status = 'PENDING'
			AND valid_till < NOW() - INTERVAL '30 days'
		)
	`)
	if err != nil {
		log.Printf("⚠️  Warning deleting claim media: %v", err)
	} else {
		rows, _ := result.RowsAffected()
		fmt.Printf("🗑️  Deleted %d media rows\n", rows)
	}

	// Step 3: Delete the stale claims themselves
	result, err = db.Exec(`
		DELETE FROM claims
		WHERE status = 'PENDING'
		AND valid_till < NOW() - INTERVAL '30 days'
	`)
	if err != nil {
		log.Fatal("Failed to delete claims:", err)
	}

	rows, _ := result.RowsAffected()
	fmt.Printf("🗑️  Deleted %d stale claims\n", rows)
	fmt.Println("✅ Purge complete")
}
