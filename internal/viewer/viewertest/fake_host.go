// Package viewertest provides an in-memory FrameHost for tests.
package viewertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
	"github.com/marcellin56/Central-de-ferramentas/internal/viewer"
)

// MountRecord describes one Mount call.
type MountRecord struct {
	HandleID string
	Gen      int64
	Target   catalog.Tool
	Sandbox  string
}

type handle struct {
	id        string
	sig       viewer.Signals
	unmounted bool
}

func (h *handle) ID() string { return h.id }

// FakeHost records mounts, reloads and unmounts. Load outcomes are
// delivered by the test through Signals.
type FakeHost struct {
	mu       sync.Mutex
	next     int
	mounts   []MountRecord
	reloads  []int64
	unmounts int
	live     map[string]*handle
	last     *handle

	// MountErr, when set, makes Mount fail.
	MountErr error
	// ReloadErr, when set, makes ForceReload fail.
	ReloadErr error
	// MountPanic, when set, makes Mount panic with it.
	MountPanic any
}

var _ viewer.FrameHost = (*FakeHost)(nil)

// NewFakeHost returns an empty FakeHost.
func NewFakeHost() *FakeHost {
	return &FakeHost{live: make(map[string]*handle)}
}

// Mount implements viewer.FrameHost.
func (f *FakeHost) Mount(_ context.Context, target catalog.Tool, gen int64, policy viewer.SandboxPolicy, sig viewer.Signals) (viewer.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MountPanic != nil {
		panic(f.MountPanic)
	}
	if f.MountErr != nil {
		return nil, f.MountErr
	}
	f.next++
	h := &handle{id: fmt.Sprintf("h%d", f.next), sig: sig}
	f.live[h.id] = h
	f.last = h
	f.mounts = append(f.mounts, MountRecord{
		HandleID: h.id,
		Gen:      gen,
		Target:   target,
		Sandbox:  policy.Attribute(),
	})
	return h, nil
}

// Unmount implements viewer.FrameHost.
func (f *FakeHost) Unmount(vh viewer.Handle) {
	h, ok := vh.(*handle)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.unmounted {
		return
	}
	h.unmounted = true
	delete(f.live, h.id)
	f.unmounts++
}

// ForceReload implements viewer.FrameHost.
func (f *FakeHost) ForceReload(_ viewer.Handle, gen int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReloadErr != nil {
		return f.ReloadErr
	}
	f.reloads = append(f.reloads, gen)
	return nil
}

// Mounts returns every Mount call so far.
func (f *FakeHost) Mounts() []MountRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]MountRecord(nil), f.mounts...)
}

// Reloads returns the generations passed to ForceReload.
func (f *FakeHost) Reloads() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.reloads...)
}

// Unmounts counts effective Unmount calls.
func (f *FakeHost) Unmounts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unmounts
}

// Live counts handles that are mounted and not yet unmounted.
func (f *FakeHost) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// Signals returns the sink of the most recently mounted surface.
func (f *FakeHost) Signals() viewer.Signals {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return nil
	}
	return f.last.sig
}
