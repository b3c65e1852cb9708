// Package layer holds the normalized layer stack for a single document.
//
// Orders are dense and zero-based: at all times the Order fields of a
// stack's layers form the permutation [0..N-1], with the base layer
// pinned at 0. All mutators preserve that invariant.
package layer

import (
	"errors"
	"iter"
	"sort"

	"github.com/google/uuid"
)

// Kind discriminates what a layer holds.
type Kind string

const (
	KindBase      Kind = "base"
	KindShape     Kind = "shape"
	KindGenerated Kind = "generated"
	KindImported  Kind = "imported"
)

// ErrIndexOutOfRange reports a reorder index outside the stack.
var ErrIndexOutOfRange = errors.New("layer index out of range")

// Point is a vertex of a polygon boundary in document pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an explicit placement in document pixel space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layer is one entry in a document's composition stack.
// Bounds nil means natural image size at the origin.
type Layer struct {
	ID                string  `json:"id"`
	Order             int     `json:"order"`
	Kind              Kind    `json:"kind"`
	Name              string  `json:"name"`
	Visible           bool    `json:"visible"`
	Opacity           int     `json:"opacity"` // 0..100
	ImageData         []byte  `json:"imageData,omitempty"`
	OriginalImageData []byte  `json:"originalImageData,omitempty"`
	Bounds            *Rect   `json:"bounds,omitempty"`
	FeatherRadius     float64 `json:"featherRadius,omitempty"`
	PolygonPoints     []Point `json:"polygonPoints,omitempty"`
}

// Clone returns a deep copy; byte slices and points are never shared.
func (l Layer) Clone() Layer {
	c := l
	if l.ImageData != nil {
		c.ImageData = append([]byte(nil), l.ImageData...)
	}
	if l.OriginalImageData != nil {
		c.OriginalImageData = append([]byte(nil), l.OriginalImageData...)
	}
	if l.Bounds != nil {
		b := *l.Bounds
		c.Bounds = &b
	}
	if l.PolygonPoints != nil {
		c.PolygonPoints = append([]Point(nil), l.PolygonPoints...)
	}
	return c
}

// SourceImage returns the bytes derived effects should start from:
// the retained pre-transform source when present, else the current render.
func (l Layer) SourceImage() []byte {
	if len(l.OriginalImageData) > 0 {
		return l.OriginalImageData
	}
	return l.ImageData
}

// Spec describes a layer to be added. Order and ID are assigned by the stack.
type Spec struct {
	Kind              Kind
	Name              string
	Visible           bool
	Opacity           int
	ImageData         []byte
	OriginalImageData []byte
	Bounds            *Rect
	FeatherRadius     float64
	PolygonPoints     []Point
}

// Stack is the ordered layer collection of one document.
// It is not safe for concurrent use; the engine runs on a single
// logical thread (see the session manager).
type Stack struct {
	layers   []Layer // ascending Order, Order == slice index
	activeID string
}

func NewStack() *Stack {
	return &Stack{}
}

// InitBase installs the base layer at order 0. It replaces any existing
// base and is only called when a document's source image is (re)loaded.
func (s *Stack) InitBase(name string, imageData []byte) string {
	base := Layer{
		ID:        uuid.NewString(),
		Order:     0,
		Kind:      KindBase,
		Name:      name,
		Visible:   true,
		Opacity:   100,
		ImageData: imageData,
	}
	if len(s.layers) > 0 && s.layers[0].Kind == KindBase {
		s.layers[0] = base
	} else {
		s.layers = append([]Layer{base}, s.layers...)
		s.renumber()
	}
	return base.ID
}

// AddLayer appends a layer on top of the stack and makes it active.
func (s *Stack) AddLayer(spec Spec) string {
	l := Layer{
		ID:                uuid.NewString(),
		Order:             len(s.layers),
		Kind:              spec.Kind,
		Name:              spec.Name,
		Visible:           spec.Visible,
		Opacity:           clampOpacity(spec.Opacity),
		ImageData:         spec.ImageData,
		OriginalImageData: spec.OriginalImageData,
		Bounds:            spec.Bounds,
		FeatherRadius:     spec.FeatherRadius,
		PolygonPoints:     spec.PolygonPoints,
	}
	if l.Kind == "" || l.Kind == KindBase {
		l.Kind = KindImported
	}
	s.layers = append(s.layers, l)
	s.activeID = l.ID
	return l.ID
}

// RemoveLayer deletes a layer and closes the order gap. Removing the base
// layer or an absent id is a no-op. If the removed layer was active, the
// nearest non-base layer below it becomes active (the nearest above when
// nothing but the base sits below), or no layer when none remain.
func (s *Stack) RemoveLayer(id string) {
	idx := s.indexOf(id)
	if idx < 0 || s.layers[idx].Kind == KindBase {
		return
	}
	wasActive := s.activeID == id
	s.layers = append(s.layers[:idx], s.layers[idx+1:]...)
	s.renumber()
	if wasActive {
		s.activeID = s.fallbackActive(idx)
	}
}

func (s *Stack) fallbackActive(removedIdx int) string {
	for i := removedIdx - 1; i >= 0; i-- {
		if s.layers[i].Kind != KindBase {
			return s.layers[i].ID
		}
	}
	for i := removedIdx; i < len(s.layers); i++ {
		if s.layers[i].Kind != KindBase {
			return s.layers[i].ID
		}
	}
	return ""
}

// Reorder moves the layer at from to position to, renumbering the whole
// stack. The stack performs the raw move for any in-range indices; policy
// about the base layer belongs to the caller.
func (s *Stack) Reorder(from, to int) error {
	n := len(s.layers)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	moved := s.layers[from]
	rest := append(append([]Layer{}, s.layers[:from]...), s.layers[from+1:]...)
	s.layers = append(append(append([]Layer{}, rest[:to]...), moved), rest[to:]...)
	s.renumber()
	return nil
}

// SetOpacity clamps value to 0..100. Absent id is a no-op.
func (s *Stack) SetOpacity(id string, value int) {
	if idx := s.indexOf(id); idx >= 0 {
		s.layers[idx].Opacity = clampOpacity(value)
	}
}

func (s *Stack) ToggleVisibility(id string) {
	if idx := s.indexOf(id); idx >= 0 {
		s.layers[idx].Visible = !s.layers[idx].Visible
	}
}

func (s *Stack) Rename(id, name string) {
	if idx := s.indexOf(id); idx >= 0 {
		s.layers[idx].Name = name
	}
}

func (s *Stack) SetFeatherRadius(id string, radius float64) {
	if idx := s.indexOf(id); idx >= 0 && radius >= 0 {
		s.layers[idx].FeatherRadius = radius
	}
}

func (s *Stack) SetPolygonPoints(id string, points []Point) {
	if idx := s.indexOf(id); idx >= 0 {
		s.layers[idx].PolygonPoints = append([]Point(nil), points...)
	}
}

// SetImage replaces a layer's rendered bytes. When original is nil the
// existing pre-transform source is kept so effects can still recompute
// losslessly.
func (s *Stack) SetImage(id string, image, original []byte) {
	if idx := s.indexOf(id); idx >= 0 {
		s.layers[idx].ImageData = image
		if original != nil {
			s.layers[idx].OriginalImageData = original
		}
	}
}

// SetBounds writes an explicit placement, e.g. after a canvas drag.
func (s *Stack) SetBounds(id string, x, y, w, h float64) {
	if idx := s.indexOf(id); idx >= 0 {
		s.layers[idx].Bounds = &Rect{X: x, Y: y, Width: w, Height: h}
	}
}

// Duplicate clones a layer (fresh id) and inserts the copy immediately
// above the source. The copy becomes active. Returns the new id, or
// "" when the source is absent or the base layer.
func (s *Stack) Duplicate(id string) string {
	idx := s.indexOf(id)
	if idx < 0 || s.layers[idx].Kind == KindBase {
		return ""
	}
	dup := s.layers[idx].Clone()
	dup.ID = uuid.NewString()
	s.layers = append(s.layers[:idx+1], append([]Layer{dup}, s.layers[idx+1:]...)...)
	s.renumber()
	s.activeID = dup.ID
	return dup.ID
}

// VisibleLayers yields visible layers in ascending order. The sequence is
// restartable; each yielded layer is a copy.
func (s *Stack) VisibleLayers() iter.Seq[Layer] {
	return func(yield func(Layer) bool) {
		for _, l := range s.layers {
			if !l.Visible {
				continue
			}
			if !yield(l.Clone()) {
				return
			}
		}
	}
}

// Layers returns a deep copy of the stack in ascending order.
func (s *Stack) Layers() []Layer {
	out := make([]Layer, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Clone()
	}
	return out
}

func (s *Stack) Get(id string) (Layer, bool) {
	if idx := s.indexOf(id); idx >= 0 {
		return s.layers[idx].Clone(), true
	}
	return Layer{}, false
}

func (s *Stack) Base() (Layer, bool) {
	if len(s.layers) > 0 && s.layers[0].Kind == KindBase {
		return s.layers[0].Clone(), true
	}
	return Layer{}, false
}

func (s *Stack) Count() int { return len(s.layers) }

func (s *Stack) ActiveID() string { return s.activeID }

// SetActive points the active-layer marker at id. Absent ids clear it;
// the scene surface reports deselection as a nil handle and that maps
// to an empty id here.
func (s *Stack) SetActive(id string) {
	if id == "" || s.indexOf(id) >= 0 {
		s.activeID = id
	}
}

// Clear drops every layer including the base.
func (s *Stack) Clear() {
	s.layers = nil
	s.activeID = ""
}

// Restore replaces the stack from untrusted input and re-establishes the
// invariants: duplicate ids are dropped (first wins), at most one base
// layer survives and is moved to the bottom, orders are reassigned
// densely following the input's order-then-position sort. The active id
// falls back to the top-most layer when it does not survive.
func (s *Stack) Restore(layers []Layer, activeID string) {
	sorted := make([]Layer, len(layers))
	for i, l := range layers {
		sorted[i] = l.Clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	seen := make(map[string]bool, len(sorted))
	out := make([]Layer, 0, len(sorted))
	var base *Layer
	for _, l := range sorted {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		if l.Kind == KindBase {
			if base != nil {
				continue // only the first base survives
			}
			b := l
			base = &b
			continue
		}
		out = append(out, l)
	}
	if base != nil {
		out = append([]Layer{*base}, out...)
	}
	s.layers = out
	s.renumber()

	switch {
	case activeID == "":
		s.activeID = "" // explicit no-selection survives the restore
	case s.indexOf(activeID) >= 0:
		s.activeID = activeID
	case len(s.layers) > 0:
		s.activeID = s.layers[len(s.layers)-1].ID
	default:
		s.activeID = ""
	}
}

func (s *Stack) indexOf(id string) int {
	for i := range s.layers {
		if s.layers[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Stack) renumber() {
	for i := range s.layers {
		s.layers[i].Order = i
	}
}

func clampOpacity(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
