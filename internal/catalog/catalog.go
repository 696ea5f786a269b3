// Package catalog holds the built-in tool list the dashboard shows, plus the
// search/category filter applied to it.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultDocument []byte

// Document is the on-disk catalog format.
type Document struct {
	Categories []Category `yaml:"categories"`
	Tools      []Tool     `yaml:"tools"`
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Tools))
	for _, t := range doc.Tools {
		if err := t.Validate(); err != nil {
			return Document{}, err
		}
		if _, dup := seen[t.ID]; dup {
			return Document{}, fmt.Errorf("%w: duplicate id %q", ErrInvalidTool, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	if len(doc.Categories) == 0 {
		doc.Categories = []Category{{ID: CategoryAll, Label: "Todos"}}
	}
	return doc, nil
}

// Catalog is the concurrency-safe set of built-in tools. The contents can be
// swapped wholesale when the backing file changes.
type Catalog struct {
	mu         sync.RWMutex
	tools      []Tool
	byID       map[string]int
	categories []Category
}

// New builds a Catalog from a parsed document.
func New(doc Document) *Catalog {
	c := &Catalog{}
	c.Replace(doc)
	return c
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	doc, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded defaults are invalid: %v", err))
	}
	return New(doc)
}

// LoadFile reads a catalog document from path.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Replace swaps in the tools and categories of doc.
func (c *Catalog) Replace(doc Document) {
	tools := append([]Tool(nil), doc.Tools...)
	byID := make(map[string]int, len(tools))
	for i, t := range tools {
		byID[t.ID] = i
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools = tools
	c.byID = byID
	c.categories = append([]Category(nil), doc.Categories...)
}

// Tools returns a copy of the built-in tools in catalog order.
func (c *Catalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Tool(nil), c.tools...)
}

// Categories returns a copy of the filter tabs.
func (c *Catalog) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Category(nil), c.categories...)
}

// Get looks up a built-in tool by id.
func (c *Catalog) Get(id string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Tool{}, false
	}
	return c.tools[i], true
}

// Filter keeps the tools whose name or description contains query
// (case-insensitive) and whose category matches. An empty category behaves
// like CategoryAll.
func Filter(tools []Tool, query, category string) []Tool {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Name), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		if category != "" && category != CategoryAll &&
			t.Category != category && t.Category != CategoryAll {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Find returns the first tool in tools with the given id.
func Find(tools []Tool, id string) (Tool, bool) {
	for _, t := range tools {
		if t.ID == id {
			return t, true
		}
	}
	return Tool{}, false
}
