package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresRepository implements JobRepository using PostgreSQL
type PostgresRepository struct {
	sqlRepository
}

// NewPostgresRepository connects to dsn and ensures the schema exists
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &PostgresRepository{sqlRepository{db: db, placeholder: dollar}}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}
