// Package session owns the set of open documents and the single live
// materialization of the active one.
//
// At most one session's state exists in live form (layer stack, history,
// view, base image); every other session is a serialized Document. The
// manager flushes and restores that live slot on tab transitions, with a
// transient "no active session" window so observers reacting to the
// outgoing session cannot misattribute writes.
package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/bananaslice/internal/history"
	"github.com/jask/bananaslice/internal/layer"
)

// ViewTransform is the document's zoom/pan state.
type ViewTransform struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

// DefaultView is a 1:1 view at the origin.
func DefaultView() ViewTransform { return ViewTransform{Zoom: 1} }

// BaseImage is the originally opened image of a document.
type BaseImage struct {
	Data   []byte `json:"data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

func (b *BaseImage) clone() *BaseImage {
	if b == nil {
		return nil
	}
	c := *b
	c.Data = append([]byte(nil), b.Data...)
	return &c
}

// Document is the full stored state of one session.
type Document struct {
	ID            string
	Name          string
	Path          string
	Base          *BaseImage
	View          ViewTransform
	Layers        []layer.Layer
	ActiveLayerID string
	Past          []history.Snapshot
	Future        []history.Snapshot
	Dirty         bool
}

// Manager keeps the session registry, the tab sequence and the live
// stores for the active session. Not safe for concurrent use; the
// engine runs on the UI goroutine.
type Manager struct {
	stack *layer.Stack
	hist  *history.History

	docs   map[string]*Document
	tabs   []string
	active string // "" = no active session

	// live state alongside stack/hist
	view ViewTransform
	base *BaseImage
	name string
	path string
}

func NewManager(stack *layer.Stack, hist *history.History) *Manager {
	return &Manager{
		stack: stack,
		hist:  hist,
		docs:  make(map[string]*Document),
		view:  DefaultView(),
	}
}

// Stack exposes the live layer stack. Mutating it is only meaningful
// while the session that owns it is active.
func (m *Manager) Stack() *layer.Stack { return m.stack }

// History exposes the live history engine.
func (m *Manager) History() *history.History { return m.hist }

func (m *Manager) ActiveID() string { return m.active }

// Tabs returns the tab sequence (a copy).
func (m *Manager) Tabs() []string {
	return append([]string(nil), m.tabs...)
}

// Get returns the stored document for id. For the active session the
// stored copy may lag the live state; call SaveActiveSessionState first
// if a current view is needed.
func (m *Manager) Get(id string) (*Document, bool) {
	d, ok := m.docs[id]
	return d, ok
}

// Name returns the active session's display name.
func (m *Manager) Name() string { return m.name }

func (m *Manager) SetName(name string) { m.name = name }

// Path returns the active session's source path ("" when unsaved).
func (m *Manager) Path() string { return m.path }

func (m *Manager) SetPath(path string) { m.path = path }

func (m *Manager) View() ViewTransform { return m.view }

func (m *Manager) SetView(v ViewTransform) { m.view = v }

func (m *Manager) Base() *BaseImage { return m.base }

func (m *Manager) SetBase(b *BaseImage) { m.base = b }

// CreateSession flushes the current session, clears the live stores and
// activates a fresh empty document. Returns the new session id.
func (m *Manager) CreateSession(name string) string {
	m.SaveActiveSessionState()
	m.active = "" // fence off observers of the outgoing session
	m.clearLive()

	id := uuid.NewString()
	if name == "" {
		name = fmt.Sprintf("Untitled %d", len(m.tabs)+1)
	}
	m.docs[id] = &Document{ID: id, Name: name, View: DefaultView()}
	m.tabs = append(m.tabs, id)
	m.name = name
	m.active = id
	return id
}

// SwitchSession activates id. A no-op when id is already active or not
// registered.
func (m *Manager) SwitchSession(id string) {
	if id == m.active {
		return
	}
	target, ok := m.docs[id]
	if !ok {
		return
	}
	m.SaveActiveSessionState()
	m.active = ""
	m.restoreLive(target)
	m.active = id
}

// CloseSession closes id unless it has unsaved changes. Returns false,
// with no side effects, when the session is dirty; the caller confirms
// with the user and retries via ForceCloseSession.
func (m *Manager) CloseSession(id string) bool {
	if _, ok := m.docs[id]; !ok {
		return true
	}
	if m.HasUnsavedChanges(id) {
		return false
	}
	m.ForceCloseSession(id)
	return true
}

// ForceCloseSession unconditionally removes id. When the active session
// closes, the tab now occupying its clamped index becomes active; the
// live stores are cleared when no tabs remain.
func (m *Manager) ForceCloseSession(id string) {
	if _, ok := m.docs[id]; !ok {
		return
	}
	tabIdx := m.tabIndex(id)
	delete(m.docs, id)
	if tabIdx >= 0 {
		m.tabs = append(m.tabs[:tabIdx], m.tabs[tabIdx+1:]...)
	}
	if id != m.active {
		return
	}

	replacement := ""
	if len(m.tabs) > 0 {
		idx := tabIdx
		if idx > len(m.tabs)-1 {
			idx = len(m.tabs) - 1
		}
		replacement = m.tabs[idx]
	}

	m.active = ""
	if replacement == "" {
		m.clearLive()
		return
	}
	m.restoreLive(m.docs[replacement])
	m.active = replacement
}

// SaveActiveSessionState captures the live stores into the active
// session's stored document. No-op when nothing is active.
func (m *Manager) SaveActiveSessionState() {
	if m.active == "" {
		return
	}
	doc, ok := m.docs[m.active]
	if !ok {
		return
	}
	past, future := m.hist.Stacks()
	doc.Layers = m.stack.Layers()
	doc.ActiveLayerID = m.stack.ActiveID()
	doc.Past = cloneStack(past)
	doc.Future = cloneStack(future)
	doc.Dirty = m.hist.Dirty()
	doc.View = m.view
	doc.Base = m.base.clone()
	doc.Name = m.name
	doc.Path = m.path
}

// AdoptDocument registers a loaded document (for example from a project
// file), activates it and materializes its state. Returns the session id.
func (m *Manager) AdoptDocument(doc *Document) string {
	m.SaveActiveSessionState()
	m.active = ""
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.View.Zoom == 0 {
		doc.View = DefaultView()
	}
	m.docs[doc.ID] = doc
	m.tabs = append(m.tabs, doc.ID)
	m.restoreLive(doc)
	m.active = doc.ID
	return doc.ID
}

// HasUnsavedChanges reads dirtiness from the live history engine for the
// active session and from the stored snapshot otherwise.
func (m *Manager) HasUnsavedChanges(id string) bool {
	if id == m.active {
		return m.hist.Dirty()
	}
	if d, ok := m.docs[id]; ok {
		return d.Dirty
	}
	return false
}

// FindSessionByPath matches a source path case-insensitively with
// normalized separators, checking the live session's current path before
// the stored snapshots. Returns "" when no session owns the path.
func (m *Manager) FindSessionByPath(path string) string {
	want := normalizePath(path)
	if want == "" {
		return ""
	}
	if m.active != "" && normalizePath(m.path) == want {
		return m.active
	}
	for _, id := range m.tabs {
		if id == m.active {
			continue // live path already checked; the stored one may be stale
		}
		if d, ok := m.docs[id]; ok && normalizePath(d.Path) == want {
			return id
		}
	}
	return ""
}

// Commit snapshots the live stack into history. One call per logical
// commit boundary.
func (m *Manager) Commit() {
	m.hist.Commit(m.currentSnapshot())
}

// Undo applies the previous snapshot to the live stack. Reports whether
// anything changed.
func (m *Manager) Undo() bool {
	snap, ok := m.hist.Undo(m.currentSnapshot())
	if !ok {
		return false
	}
	m.stack.Restore(snap.Layers, snap.ActiveLayerID)
	return true
}

// Redo re-applies the next snapshot to the live stack.
func (m *Manager) Redo() bool {
	snap, ok := m.hist.Redo(m.currentSnapshot())
	if !ok {
		return false
	}
	m.stack.Restore(snap.Layers, snap.ActiveLayerID)
	return true
}

// MoveLayerUp nudges a layer one step toward the top of the stack.
// The base layer never moves and nothing may move below it. A
// successful move commits one history entry; a clamped move leaves
// history untouched.
func (m *Manager) MoveLayerUp(id string) bool {
	return m.nudge(id, +1)
}

// MoveLayerDown nudges a layer one step toward the base.
func (m *Manager) MoveLayerDown(id string) bool {
	return m.nudge(id, -1)
}

func (m *Manager) nudge(id string, delta int) bool {
	l, ok := m.stack.Get(id)
	if !ok || l.Kind == layer.KindBase {
		return false
	}
	to := l.Order + delta
	floor := 0
	if _, hasBase := m.stack.Base(); hasBase {
		floor = 1 // slot 0 belongs to the base layer
	}
	if to < floor || to > m.stack.Count()-1 {
		return false
	}
	before := m.currentSnapshot()
	if m.stack.Reorder(l.Order, to) != nil {
		return false
	}
	m.hist.Commit(before)
	return true
}

func (m *Manager) currentSnapshot() history.Snapshot {
	return history.Snapshot{Layers: m.stack.Layers(), ActiveLayerID: m.stack.ActiveID()}
}

func (m *Manager) clearLive() {
	m.stack.Clear()
	m.hist.Reset()
	m.view = DefaultView()
	m.base = nil
	m.name = ""
	m.path = ""
}

func (m *Manager) restoreLive(doc *Document) {
	m.stack.Restore(doc.Layers, doc.ActiveLayerID)
	m.hist.Restore(cloneStack(doc.Past), cloneStack(doc.Future), doc.Dirty)
	m.view = doc.View
	m.base = doc.Base.clone()
	m.name = doc.Name
	m.path = doc.Path
}

func (m *Manager) tabIndex(id string) int {
	for i, t := range m.tabs {
		if t == id {
			return i
		}
	}
	return -1
}

func cloneStack(in []history.Snapshot) []history.Snapshot {
	if in == nil {
		return nil
	}
	out := make([]history.Snapshot, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return strings.ToLower(filepath.ToSlash(filepath.Clean(p)))
}
