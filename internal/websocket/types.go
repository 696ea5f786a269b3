// Package websocket hosts viewer frames in connected browser presenters.
//
// The server never renders a frame itself. It tells every presenter
// connected for a caller context which surface to show, and presenters
// report load outcomes back over the same socket.
package websocket

import (
	"github.com/marcellin56/Central-de-ferramentas/internal/viewer"
)

// Server to presenter message types.
const (
	TypeSnapshot = "snapshot"
	TypeMount    = "mount"
	TypeUnmount  = "unmount"
	TypeReload   = "reload"
)

// Presenter to server message types. TypeReload is shared.
const (
	TypeLoaded  = "loaded"
	TypeErrored = "errored"
	TypeClose   = "close"
	TypeError   = "error"
)

// Message is the only frame exchanged on a viewer socket.
type Message struct {
	Type string `json:"type"`
	// HandleID names the surface a mount, unmount or reload refers to.
	HandleID string `json:"handleId,omitempty"`
	// Gen is the generation a mount or reload was issued for. Presenters
	// echo it on loaded and errored.
	Gen int64 `json:"gen,omitempty"`
	// URL and Sandbox describe the iframe to create on mount.
	URL     string `json:"url,omitempty"`
	Sandbox string `json:"sandbox,omitempty"`
	Title   string `json:"title,omitempty"`

	Snapshot *viewer.Snapshot `json:"snapshot,omitempty"`
	View     *viewer.View     `json:"view,omitempty"`

	// Error carries the reason a presenter command was rejected.
	Error string `json:"error,omitempty"`
}
