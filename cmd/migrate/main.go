// Command migrate applies the .sql files under migrations/ in name order,
// recording each applied file in schema_migrations so re-runs only pick up
// new ones.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dir := "migrations"
	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		} else {
			dir = a
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		log.Fatalf("ensure schema_migrations: %v", err)
	}

	applied, err := appliedSet(db)
	if err != nil {
		log.Fatalf("read schema_migrations: %v", err)
	}

	if listOnly {
		names := make([]string, 0, len(applied))
		for n := range applied {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Println(" ", n)
		}
		fmt.Printf("Applied: %d\n", len(names))
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var pending []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") || applied[name] {
			continue
		}
		pending = append(pending, name)
	}
	sort.Strings(pending)

	if len(pending) == 0 {
		log.Println("Nothing to apply")
		return
	}

	for _, name := range pending {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Fatalf("read %s: %v", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			log.Fatalf("%s: begin: %v", name, err)
		}
		if _, err := tx.Exec(string(data)); err != nil {
			tx.Rollback()
			log.Fatalf("%s: %v", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			tx.Rollback()
			log.Fatalf("%s: record: %v", name, err)
		}
		if err := tx.Commit(); err != nil {
			log.Fatalf("%s: commit: %v", name, err)
		}
		log.Printf("applied %s", name)
	}
	log.Printf("Done: %d migration(s) applied", len(pending))
}

func appliedSet(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}
