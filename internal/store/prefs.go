package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
	"github.com/marcellin56/Central-de-ferramentas/internal/logger"
)

// Fixed keys in each account's namespace.
const (
	KeyCustomTools = "nexus_custom_tools"
	KeyFavorites   = "nexus_favorites"
	KeyTheme       = "nexus_theme"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ErrInvalidTheme is returned by SetTheme for anything but light or dark.
var ErrInvalidTheme = errors.New("invalid theme")

// Prefs stores custom tools, favorites and theme per account. Lists are
// JSON arrays that are read on demand and rewritten wholesale.
type Prefs struct {
	db  *DB
	log *logrus.Entry

	// Serializes read-modify-write of list keys.
	mu sync.Mutex
}

// NewPrefs returns Prefs backed by db.
func NewPrefs(db *DB) *Prefs {
	return &Prefs{db: db, log: logger.WithComponent("store")}
}

// CustomTools returns the account's custom tools, newest first. A value that
// does not decode is logged and treated as empty.
func (p *Prefs) CustomTools(ctx context.Context, account string) ([]catalog.Tool, error) {
	var tools []catalog.Tool
	if err := p.readList(ctx, account, KeyCustomTools, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// AddCustomTool prepends tool to the account's list.
func (p *Prefs) AddCustomTool(ctx context.Context, account string, tool catalog.Tool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var tools []catalog.Tool
	if err := p.readList(ctx, account, KeyCustomTools, &tools); err != nil {
		return err
	}
	tool.IsFavorite = false
	tools = append([]catalog.Tool{tool}, tools...)
	return p.writeList(ctx, account, KeyCustomTools, tools)
}

// Favorites returns the set of favorite tool ids.
func (p *Prefs) Favorites(ctx context.Context, account string) (map[string]bool, error) {
	var ids []string
	if err := p.readList(ctx, account, KeyFavorites, &ids); err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ToggleFavorite flips id in the favorites list and reports whether it is
// now a favorite.
func (p *Prefs) ToggleFavorite(ctx context.Context, account, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ids []string
	if err := p.readList(ctx, account, KeyFavorites, &ids); err != nil {
		return false, err
	}
	kept := ids[:0]
	found := false
	for _, fid := range ids {
		if fid == id {
			found = true
			continue
		}
		kept = append(kept, fid)
	}
	if !found {
		kept = append(kept, id)
	}
	if err := p.writeList(ctx, account, KeyFavorites, kept); err != nil {
		return false, err
	}
	return !found, nil
}

// Theme returns the account's theme, light when unset.
func (p *Prefs) Theme(ctx context.Context, account string) (string, error) {
	theme, err := p.db.Get(ctx, account, KeyTheme)
	if errors.Is(err, ErrNotFound) {
		return ThemeLight, nil
	}
	if err != nil {
		return "", err
	}
	if theme != ThemeLight && theme != ThemeDark {
		return ThemeLight, nil
	}
	return theme, nil
}

// SetTheme stores the account's theme.
func (p *Prefs) SetTheme(ctx context.Context, account, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	return p.db.Put(ctx, account, KeyTheme, theme)
}

func (p *Prefs) readList(ctx context.Context, account, key string, out any) error {
	raw, err := p.db.Get(ctx, account, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"account": account,
			"key":     key,
		}).Warn("failed to parse stored list, treating as empty")
		return nil
	}
	return nil
}

func (p *Prefs) writeList(ctx context.Context, account, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return p.db.Put(ctx, account, key, string(data))
}
