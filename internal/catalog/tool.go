package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Status is the lifecycle state of a tool as shown on its card.
type Status string

const (
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusBeta        Status = "beta"
	StatusComingSoon  Status = "coming_soon"
)

// Type says how a tool is presented when opened.
type Type string

const (
	TypeIframe   Type = "iframe"
	TypeRedirect Type = "redirect"
)

// CategoryAll matches every tool, and a tool in CategoryAll matches every
// category filter.
const CategoryAll = "all"

// Tool is one card in the catalog.
type Tool struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url" yaml:"url"`
	Icon        string `json:"icon" yaml:"icon"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
	Category    string `json:"category" yaml:"category"`
	Type        Type   `json:"type" yaml:"type"`
	Status      Status `json:"status" yaml:"status"`
	IsFavorite  bool   `json:"isFavorite,omitempty" yaml:"-"`
}

// Category is a filter tab.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

var (
	// ErrInvalidTool is returned by Validate.
	ErrInvalidTool = errors.New("invalid tool")
	// ErrNotFound is returned when a tool id is unknown.
	ErrNotFound = errors.New("tool not found")
)

// Openable reports whether a tool may be opened in a viewer. Coming-soon
// cards are placeholders.
func Openable(t Tool) bool {
	return t.Status != StatusComingSoon
}

// Validate checks the fields every tool must carry.
func (t Tool) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTool)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: %s: missing name", ErrInvalidTool, t.ID)
	}
	switch t.Type {
	case TypeIframe, TypeRedirect:
	default:
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidTool, t.ID, t.Type)
	}
	switch t.Status {
	case StatusActive, StatusMaintenance, StatusBeta, StatusComingSoon:
	default:
		return fmt.Errorf("%w: %s: unknown status %q", ErrInvalidTool, t.ID, t.Status)
	}
	// Placeholders use "#" and are never opened.
	if t.Status == StatusComingSoon {
		return nil
	}
	u, err := url.Parse(t.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s: url %q is not absolute", ErrInvalidTool, t.ID, t.URL)
	}
	return nil
}

// NormalizeURL adds https:// to user input that has no http(s) scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	return "https://" + raw
}
