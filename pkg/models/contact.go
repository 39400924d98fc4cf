package models

import (
	"strings"
	"time"
)

type ContactRecord struct {
	// Core identifier
	ID string `json:"id"` // Unique contact identifier (assigned on save, empty until then)

	// Inferred fields (empty string when unresolved, never omitted)
	Name    string `json:"name"`    // Best-guess personal or organizational name
	Phone   string `json:"phone"`   // Digits plus optional leading '+', separators stripped
	Email   string `json:"email"`   // Lower-cased, trimmed
	Company string `json:"company"` // Organization name, possibly sourced from a job-title line

	// Caller-supplied metadata
	EventTag string `json:"event_tag,omitempty"` // Free-form tag (e.g. the event where the card was collected)
	ImageRef string `json:"image_ref,omitempty"` // Opaque reference to the source image (path/URL), may be empty

	CreatedAt time.Time `json:"created_at"` // Record creation timestamp
	UpdatedAt time.Time `json:"updated_at"` // Last update timestamp
}

// IsEmpty reports whether no contact field could be resolved. An empty
// record is valid output and means "ask the user".
func (c *ContactRecord) IsEmpty() bool {
	return c.Name == "" && c.Phone == "" && c.Email == "" && c.Company == ""
}

// DisplayName returns the best available label for the record, falling
// back through name, company and email.
func (c *ContactRecord) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Company != "":
		return c.Company
	case c.Email != "":
		return c.Email
	case c.Phone != "":
		return c.Phone
	default:
		return "(unnamed contact)"
	}
}

// Summary renders a compact one-line description for logs and list output.
func (c *ContactRecord) Summary() string {
	parts := make([]string, 0, 4)
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	if c.Company != "" {
		parts = append(parts, c.Company)
	}
	if c.Email != "" {
		parts = append(parts, c.Email)
	}
	if c.Phone != "" {
		parts = append(parts, c.Phone)
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " | ")
}
