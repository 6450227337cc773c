package store

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Record is one clipboard snapshot. Rows are never updated after insert;
// they only exist (present) or not (deleted by sweep, forget or clear).
type Record struct {
	bun.BaseModel `bun:"table:clipboard_records"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	HTML      string    `bun:"html" json:"html,omitempty"`
	Plain     string    `bun:"plain" json:"plain"`
	SourceApp string    `bun:"source_app" json:"source_app,omitempty"`
	SizeBytes int64     `bun:"size_bytes,notnull" json:"size_bytes"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Summary is the listing projection: blobs are reduced to a short preview
// so that browsing the history stays cheap. Full content comes from Get.
type Summary struct {
	ID        int64     `json:"id"`
	Preview   string    `json:"preview"`
	SourceApp string    `json:"source_app,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	HasHTML   bool      `json:"has_html"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	previewRunes = 50

	// previewFetchBytes bounds how much of the plain column a listing
	// query pulls per row; 50 runes fit in 200 bytes of UTF-8.
	previewFetchBytes = 256
)

// makePreview collapses the text to a single line and truncates it to
// previewRunes runes.
func makePreview(plain, html string) string {
	text := plain
	if text == "" {
		text = html
	}
	text = strings.TrimSpace(strings.Join(strings.Fields(text), " "))

	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}
