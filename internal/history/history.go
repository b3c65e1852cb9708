// Package history implements the per-document undo/redo engine.
//
// Snapshots are captured at commit boundaries only (a drag commits once
// on release, not per frame). Undo and redo on empty stacks are silent
// no-ops; those are routine UI states, not errors.
package history

import "github.com/jask/bananaslice/internal/layer"

// Snapshot is the editable state captured at one commit boundary.
type Snapshot struct {
	Layers        []layer.Layer
	ActiveLayerID string
}

// Clone deep-copies the snapshot so stacks never share layer bytes.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{ActiveLayerID: s.ActiveLayerID}
	if s.Layers != nil {
		out.Layers = make([]layer.Layer, len(s.Layers))
		for i, l := range s.Layers {
			out.Layers[i] = l.Clone()
		}
	}
	return out
}

// History holds one session's past/future stacks and dirty flag.
type History struct {
	past   []Snapshot
	future []Snapshot
	dirty  bool

	// Limit caps the past stack; the oldest entry is dropped when a
	// commit would exceed it. Zero means unbounded.
	Limit int
}

func New() *History {
	return &History{}
}

// Commit pushes current onto the past stack, discards any redo future
// and marks the document dirty.
func (h *History) Commit(current Snapshot) {
	h.past = append(h.past, current.Clone())
	if h.Limit > 0 && len(h.past) > h.Limit {
		h.past = h.past[len(h.past)-h.Limit:]
	}
	h.future = nil
	h.dirty = true
}

// Undo pops the most recent past snapshot, stashing current for redo.
// The returned snapshot is what the caller must apply to the layer
// stack; ok is false when there is nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.past) == 0 {
		return Snapshot{}, false
	}
	top := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current.Clone())
	h.dirty = len(h.past) > 0
	return top, true
}

// Redo is the symmetric inverse of Undo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.future) == 0 {
		return Snapshot{}, false
	}
	top := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current.Clone())
	h.dirty = true
	return top, true
}

// Reset clears both stacks and marks the document clean. It is for
// discarding a session, never for undoing real edits.
func (h *History) Reset() {
	h.past = nil
	h.future = nil
	h.dirty = false
}

// Restore replaces all state verbatim, bypassing commit semantics.
// Used only when a session manager re-materializes a stored document.
func (h *History) Restore(past, future []Snapshot, dirty bool) {
	h.past = past
	h.future = future
	h.dirty = dirty
}

// MarkClean clears the dirty flag without touching the stacks. Called
// after a successful save; undo depth is preserved.
func (h *History) MarkClean() {
	h.dirty = false
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }
func (h *History) CanRedo() bool { return len(h.future) > 0 }
func (h *History) Dirty() bool   { return h.dirty }

// Stacks returns the raw past/future stacks for snapshotting into a
// stored document. Callers must not mutate the returned slices.
func (h *History) Stacks() (past, future []Snapshot) {
	return h.past, h.future
}
