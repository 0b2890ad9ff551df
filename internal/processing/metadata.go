package processing

import "time"

type Metadata struct {
	Path       string    `json:"path,omitempty"`
	Source     string    `json:"source"` // "file", "stdin" or "text"
	ImportedAt time.Time `json:"imported_at"`
	Title      string    `json:"title,omitempty"`
	Chars      int       `json:"chars"`
}
