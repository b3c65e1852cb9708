package scene

import (
	"bytes"
	"context"
	"image"
	"sync/atomic"

	"github.com/jask/bananaslice/internal/layer"
	"github.com/jask/bananaslice/internal/session"
)

// binding ties a layer to its scene object. Natural dimensions are
// sniffed at creation time so canvas geometry can be inverted back into
// document space.
type binding struct {
	obj  Object
	natW float64
	natH float64
}

// Synchronizer reconciles the live layer stack with the scene graph in
// both directions without feedback loops.
//
// Reconciliation passes may suspend inside CreateObjectFromImage, so
// rapid successive passes can be in flight together; the monotonically
// increasing version token makes every pass but the newest abort at its
// next per-layer checkpoint. Everything else runs on the engine's single
// logical thread.
type Synchronizer struct {
	graph    Graph
	sessions *session.Manager
	deriver  Deriver

	objects map[string]*binding
	applied map[string]float64 // layer id -> last-applied feather radius

	version   atomic.Int64
	baseReady bool
	pending   bool
	applying  bool // our own writes echoing back from the surface
}

func NewSynchronizer(graph Graph, sessions *session.Manager, deriver Deriver) *Synchronizer {
	if deriver == nil {
		deriver = NopDeriver{}
	}
	return &Synchronizer{
		graph:    graph,
		sessions: sessions,
		deriver:  deriver,
		objects:  make(map[string]*binding),
		applied:  make(map[string]float64),
	}
}

// SetBaseReady marks the base image as loaded into the scene and flushes
// any reconciliation that was deferred while it was missing.
func (s *Synchronizer) SetBaseReady(ctx context.Context) error {
	s.baseReady = true
	if s.pending {
		s.pending = false
		return s.Reconcile(ctx)
	}
	return nil
}

// Reset tears down every synchronized object and forgets the derived
// cache. Called on session transitions, before the incoming document's
// base image loads. Any in-flight pass goes stale immediately.
func (s *Synchronizer) Reset() {
	s.version.Add(1)
	s.applying = true
	for _, b := range s.objects {
		s.graph.RemoveObject(b.obj)
	}
	s.applying = false
	s.objects = make(map[string]*binding)
	s.applied = make(map[string]float64)
	s.baseReady = false
	s.pending = false
}

// Reconcile runs one store→scene pass: resolve or create an object for
// every non-base layer, apply geometry/visibility/opacity, enforce
// z-order and drop objects whose layers are gone. Deferred (not errored)
// until the base image is ready. A pass superseded by a newer one stops
// at its next checkpoint and reports no error; its work is simply
// discarded.
func (s *Synchronizer) Reconcile(ctx context.Context) error {
	token := s.version.Add(1)
	if !s.baseReady {
		s.pending = true
		return nil
	}

	live := make(map[string]bool)
	for _, l := range s.sessions.Stack().Layers() {
		if l.Kind == layer.KindBase {
			continue
		}
		if s.version.Load() != token {
			return nil // a newer pass took over
		}
		live[l.ID] = true
		if err := s.syncLayer(ctx, l, token); err != nil {
			return err
		}
	}

	if s.version.Load() != token {
		return nil
	}
	s.applying = true
	defer func() { s.applying = false }()

	for id, b := range s.objects {
		if !live[id] {
			s.graph.RemoveObject(b.obj)
			delete(s.objects, id)
			delete(s.applied, id)
		}
	}

	// base occupies the surface itself; object index i holds the layer
	// at order i+1
	for _, l := range s.sessions.Stack().Layers() {
		if b, ok := s.objects[l.ID]; ok {
			s.graph.ReorderObject(b.obj, l.Order-1)
		}
	}
	return nil
}

func (s *Synchronizer) syncLayer(ctx context.Context, l layer.Layer, token int64) error {
	b, exists := s.objects[l.ID]
	if !exists || s.applied[l.ID] != l.FeatherRadius {
		data, err := s.deriveImage(ctx, l)
		if err != nil {
			// cache untouched; the next pass retries the transform
			return nil
		}
		if s.version.Load() != token {
			return nil
		}
		obj, err := s.graph.CreateObjectFromImage(ctx, data)
		if err != nil {
			return nil
		}
		if s.version.Load() != token {
			// decode finished after a newer pass started; discard
			return nil
		}
		s.applying = true
		if exists {
			s.graph.RemoveObject(b.obj)
		}
		s.graph.AddObject(obj)
		s.applying = false
		w, h := sniffSize(data)
		b = &binding{obj: obj, natW: w, natH: h}
		s.objects[l.ID] = b
		s.applied[l.ID] = l.FeatherRadius
	}

	s.applying = true
	defer func() { s.applying = false }()
	s.graph.SetObjectGeometry(b.obj, s.sceneGeometry(l, b))
	s.graph.SetObjectVisibility(b.obj, l.Visible)
	s.graph.SetObjectOpacity(b.obj, float64(l.Opacity)/100)
	return nil
}

// deriveImage resolves the bytes a layer's object should display:
// feathered when a radius is set, sharp-masked when a polygon boundary
// with at least three vertices exists, otherwise the source verbatim.
func (s *Synchronizer) deriveImage(ctx context.Context, l layer.Layer) ([]byte, error) {
	src := l.SourceImage()
	switch {
	case l.FeatherRadius > 0:
		return s.deriver.Feather(ctx, src, l.FeatherRadius)
	case len(l.PolygonPoints) >= 3:
		return s.deriver.Mask(ctx, src, l.PolygonPoints)
	default:
		return src, nil
	}
}

func (s *Synchronizer) sceneGeometry(l layer.Layer, b *binding) Geometry {
	view := s.sessions.View()
	g := Geometry{Left: view.PanX, Top: view.PanY, ScaleX: view.Zoom, ScaleY: view.Zoom}
	if l.Bounds == nil {
		return g
	}
	g.Left = l.Bounds.X*view.Zoom + view.PanX
	g.Top = l.Bounds.Y*view.Zoom + view.PanY
	if b.natW > 0 {
		g.ScaleX = l.Bounds.Width / b.natW * view.Zoom
	}
	if b.natH > 0 {
		g.ScaleY = l.Bounds.Height / b.natH * view.Zoom
	}
	return g
}

// ObjectModified is the scene→store direction for move/resize events:
// the scene geometry is inverted through the view transform and written
// back as the layer's document-space placement. Echoes of the
// synchronizer's own writes are ignored.
func (s *Synchronizer) ObjectModified(obj Object, g Geometry) {
	if s.applying {
		return
	}
	id, b := s.lookup(obj)
	if id == "" {
		return
	}
	view := s.sessions.View()
	zoom := view.Zoom
	if zoom == 0 {
		zoom = 1
	}
	x := (g.Left - view.PanX) / zoom
	y := (g.Top - view.PanY) / zoom
	w := b.natW * g.ScaleX / zoom
	h := b.natH * g.ScaleY / zoom
	s.sessions.Stack().SetBounds(id, x, y, w, h)
}

// SelectionChanged translates a scene selection event into the
// active-layer pointer; the layer stack stays the single source of
// truth. A nil handle clears the selection.
func (s *Synchronizer) SelectionChanged(obj Object) {
	if s.applying {
		return
	}
	if obj == nil {
		s.sessions.Stack().SetActive("")
		return
	}
	if id, _ := s.lookup(obj); id != "" {
		s.sessions.Stack().SetActive(id)
	}
}

func (s *Synchronizer) lookup(obj Object) (string, *binding) {
	for id, b := range s.objects {
		if b.obj == obj {
			return id, b
		}
	}
	return "", nil
}

func sniffSize(data []byte) (float64, float64) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return float64(cfg.Width), float64(cfg.Height)
}
