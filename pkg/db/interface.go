package db

import (
	"context"
	"database/sql"

	"transcripts/pkg/domain"
)

// DBProvider is an interface for database clients that provide access to a sql.DB handle.
// This allows PostgresClient, SupabaseClient and SQLiteClient to be used interchangeably.
type DBProvider interface {
	DB() *sql.DB
}

// Sink persists one transcript row.
type Sink interface {
	SaveTranscript(ctx context.Context, rec *domain.Transcript) error
}
