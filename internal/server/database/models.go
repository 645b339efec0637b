package database

import "time"

// Document is one uploaded PDF's metadata row. JSON tags match the column
// names; rows are served to clients as-is.
type Document struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Filename      string    `json:"filename"`
	Description   string    `json:"description"`
	FileSize      int64     `json:"file_size"`
	UploadedAt    time.Time `json:"uploaded_at"`
	DownloadCount int       `json:"download_count"`
	ViewCount     int       `json:"view_count"`
}

// Stats holds aggregate library statistics.
type Stats struct {
	TotalDocuments int64
	TotalViews     int64
	TotalDownloads int64
	StorageUsed    int64
}
