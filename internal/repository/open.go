package repository

import (
	"log"

	"chat-relay-backend/internal/database"
	"chat-relay-backend/migrations"
)

// Open picks PostgreSQL for postgres:// URLs and SQLite otherwise, applies the
// schema and returns the store with its close func.
func Open(databaseURL string) (MessageRepo, func(), error) {
	if database.IsPostgresURL(databaseURL) {
		pool, err := database.NewPostgresPool(databaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(pool, migrations.Postgres, "postgres"); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Println("✓ PostgreSQL connected and migrated")
		return NewPostgresMessageRepo(pool), pool.Close, nil
	}

	db, err := database.NewSQLite(databaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("✓ SQLite history at %s", databaseURL)
	return NewSQLiteMessageRepo(db), func() { db.Close() }, nil
}
