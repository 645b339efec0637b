package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"shelf/internal/server/config"
	"shelf/internal/server/database"
	"shelf/internal/server/storage"

	"github.com/google/uuid"
)

// Sentinel errors for the service layer.
var (
	ErrNotFound      = errors.New("document not found")
	ErrTitleRequired = errors.New("title is required")
	ErrNotPDF        = errors.New("file is not a PDF")
	ErrFileTooLarge  = errors.New("file exceeds maximum allowed size")
)

// pdfMagic is the byte signature every PDF starts with.
var pdfMagic = []byte("%PDF-")

// downloadNameDisallowed matches characters stripped from titles when
// building the presented download filename.
var downloadNameDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\s\-_.]`)

// Repository is the subset of database operations the library needs.
type Repository interface {
	Create(ctx context.Context, doc *database.Document) error
	GetByID(ctx context.Context, id int64) (*database.Document, error)
	GetByFilename(ctx context.Context, filename string) (*database.Document, error)
	List(ctx context.Context) ([]*database.Document, error)
	IncrementViewCount(ctx context.Context, filename string) error
	IncrementDownloadCount(ctx context.Context, filename string) error
	Delete(ctx context.Context, id int64) error
	GetStats(ctx context.Context) (*database.Stats, error)
}

// Library owns the mapping from document records to on-disk blobs. It is the
// only component that mutates either side.
type Library struct {
	repo  Repository
	store storage.Store
	cfg   *config.Config
}

// NewLibrary creates a new document library service.
func NewLibrary(repo Repository, store storage.Store, cfg *config.Config) *Library {
	return &Library{
		repo:  repo,
		store: store,
		cfg:   cfg,
	}
}

// Upload stores an incoming PDF under a freshly generated filename and
// inserts its metadata row. The blob is written before the title is
// validated; on an empty title or a failed insert the blob is deleted again
// so no orphan survives the call.
func (l *Library) Upload(ctx context.Context, title, description string, data io.Reader, size int64) (*database.Document, error) {
	// 1. Check file size limit
	if size > l.cfg.MaxFileSize {
		return nil, ErrFileTooLarge
	}

	// 2. Check the PDF signature without buffering the whole upload
	head := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(data, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload data: %w", err)
	}
	if !bytes.Equal(head[:n], pdfMagic) {
		return nil, ErrNotPDF
	}
	data = io.MultiReader(bytes.NewReader(head[:n]), data)

	// 3. Store the blob under a unique generated filename
	filename := generateFilename()
	written, err := l.store.Save(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	// 4. Validate the title, cleaning up the blob on rejection
	if strings.TrimSpace(title) == "" {
		if err := l.store.Delete(filename); err != nil {
			slog.Error("failed to clean up blob after rejected upload", "filename", filename, "error", err)
		}
		return nil, ErrTitleRequired
	}

	// 5. Create the metadata row, cleaning up the blob on failure
	doc := &database.Document{
		Title:       title,
		Filename:    filename,
		Description: description,
		FileSize:    written,
	}
	if err := l.repo.Create(ctx, doc); err != nil {
		if derr := l.store.Delete(filename); derr != nil {
			slog.Error("failed to clean up blob after failed insert", "filename", filename, "error", derr)
		}
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	slog.Info("document uploaded",
		"id", doc.ID,
		"title", doc.Title,
		"filename", doc.Filename,
		"file_size", doc.FileSize,
	)

	return doc, nil
}

// List returns all documents, newest first.
func (l *Library) List(ctx context.Context) ([]*database.Document, error) {
	return l.repo.List(ctx)
}

// Get returns a single document's metadata.
func (l *Library) Get(ctx context.Context, id int64) (*database.Document, error) {
	doc, err := l.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrDocumentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// OpenFile resolves a blob for inline viewing and bumps the view counter.
// The counter update is best-effort: its failure is logged, never surfaced,
// so serving the file can't break because of it.
func (l *Library) OpenFile(ctx context.Context, filename string) (string, error) {
	path, err := l.store.GetPath(filename)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrInvalidFilename) {
			return "", ErrNotFound
		}
		return "", err
	}

	if err := l.repo.IncrementViewCount(ctx, filename); err != nil {
		slog.Error("failed to increment view count", "filename", filename, "error", err)
	}

	return path, nil
}

// OpenDownload resolves a blob for download, bumps the download counter and
// computes the filename presented to the client (sanitized title, or the
// storage filename when the title sanitizes to nothing or no record exists).
func (l *Library) OpenDownload(ctx context.Context, filename string) (path, downloadName string, err error) {
	path, err = l.store.GetPath(filename)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrInvalidFilename) {
			return "", "", ErrNotFound
		}
		return "", "", err
	}

	if err := l.repo.IncrementDownloadCount(ctx, filename); err != nil {
		slog.Error("failed to increment download count", "filename", filename, "error", err)
	}

	downloadName = filename
	doc, err := l.repo.GetByFilename(ctx, filename)
	if err != nil {
		slog.Error("failed to look up title for download name", "filename", filename, "error", err)
	} else {
		downloadName = sanitizeDownloadName(doc.Title, filename)
	}

	return path, downloadName, nil
}

// Delete removes a document: the metadata row first, then the blob. The blob
// delete is best-effort and idempotent; the row is the source of truth.
func (l *Library) Delete(ctx context.Context, id int64) error {
	doc, err := l.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrDocumentNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := l.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrDocumentNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	if err := l.store.Delete(doc.Filename); err != nil {
		slog.Error("failed to delete blob", "id", id, "filename", doc.Filename, "error", err)
	}

	slog.Info("document deleted", "id", id, "filename", doc.Filename)
	return nil
}

// GetStats returns aggregate library statistics.
func (l *Library) GetStats(ctx context.Context) (*database.Stats, error) {
	return l.repo.GetStats(ctx)
}

// --- Helpers ---

// generateFilename produces a unique storage filename from the current time
// and a random component. Uploader-supplied names are never used.
func generateFilename() string {
	return fmt.Sprintf("pdf-%d-%s.pdf", time.Now().UnixMilli(), uuid.NewString())
}

// sanitizeDownloadName turns a document title into a safe download filename.
// Characters outside [A-Za-z0-9\s\-_.] are stripped; an empty result falls
// back to the storage filename.
func sanitizeDownloadName(title, fallback string) string {
	cleaned := strings.TrimSpace(downloadNameDisallowed.ReplaceAllString(title, ""))
	if cleaned == "" {
		return fallback
	}
	return cleaned + ".pdf"
}
