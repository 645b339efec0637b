package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
)

const documentColumns = `id, title, filename, description, file_size, uploaded_at, download_count, view_count`

// Repository provides CRUD operations for document records.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new document record and fills in the database-assigned
// id and upload timestamp.
func (r *Repository) Create(ctx context.Context, doc *Document) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO pdfs (title, filename, description, file_size)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uploaded_at
	`,
		doc.Title,
		doc.Filename,
		doc.Description,
		doc.FileSize,
	).Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID retrieves a document by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Document, error) {
	doc := &Document{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM pdfs WHERE id = $1`, id,
	).Scan(
		&doc.ID,
		&doc.Title,
		&doc.Filename,
		&doc.Description,
		&doc.FileSize,
		&doc.UploadedAt,
		&doc.DownloadCount,
		&doc.ViewCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetByFilename retrieves a document by its generated storage filename.
func (r *Repository) GetByFilename(ctx context.Context, filename string) (*Document, error) {
	doc := &Document{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM pdfs WHERE filename = $1`, filename,
	).Scan(
		&doc.ID,
		&doc.Title,
		&doc.Filename,
		&doc.Description,
		&doc.FileSize,
		&doc.UploadedAt,
		&doc.DownloadCount,
		&doc.ViewCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document by filename: %w", err)
	}
	return doc, nil
}

// List returns all documents, newest first.
func (r *Repository) List(ctx context.Context) ([]*Document, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+documentColumns+` FROM pdfs ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []*Document{}
	for rows.Next() {
		doc := &Document{}
		if err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.Filename,
			&doc.Description,
			&doc.FileSize,
			&doc.UploadedAt,
			&doc.DownloadCount,
			&doc.ViewCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// IncrementViewCount atomically increments the view counter for the
// document with the given filename.
func (r *Repository) IncrementViewCount(ctx context.Context, filename string) error {
	tag, err := r.db.Pool.Exec(ctx,
		"UPDATE pdfs SET view_count = view_count + 1 WHERE filename = $1", filename)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// IncrementDownloadCount atomically increments the download counter for the
// document with the given filename.
func (r *Repository) IncrementDownloadCount(ctx context.Context, filename string) error {
	tag, err := r.db.Pool.Exec(ctx,
		"UPDATE pdfs SET download_count = download_count + 1 WHERE filename = $1", filename)
	if err != nil {
		return fmt.Errorf("failed to increment download count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Delete removes a document record by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, "DELETE FROM pdfs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// GetStats returns aggregate library statistics.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(view_count), 0),
			COALESCE(SUM(download_count), 0),
			COALESCE(SUM(file_size), 0)
		FROM pdfs
	`).Scan(
		&stats.TotalDocuments,
		&stats.TotalViews,
		&stats.TotalDownloads,
		&stats.StorageUsed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}
