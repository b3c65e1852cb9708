package scene

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// MemObject is the in-memory graph's object state.
type MemObject struct {
	Image    []byte
	Width    int
	Height   int
	Geom     Geometry
	Visible  bool
	Opacity  float64
	attached bool
}

// MemoryGraph is an in-memory Graph. It stands in for the real canvas
// in the terminal frontend and in tests, tracking exactly the state the
// synchronizer is responsible for: membership, z-order, geometry,
// visibility and opacity.
type MemoryGraph struct {
	order []*MemObject
}

func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{}
}

// CreateObjectFromImage sniffs the image header for natural dimensions.
// Undecodable bytes are an error, mirroring a failed canvas decode.
func (g *MemoryGraph) CreateObjectFromImage(ctx context.Context, data []byte) (Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &MemObject{
		Image:   data,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Geom:    Geometry{ScaleX: 1, ScaleY: 1},
		Visible: true,
		Opacity: 1,
	}, nil
}

func (g *MemoryGraph) AddObject(obj Object) {
	o, ok := obj.(*MemObject)
	if !ok || o.attached {
		return
	}
	o.attached = true
	g.order = append(g.order, o)
}

func (g *MemoryGraph) RemoveObject(obj Object) {
	for i, o := range g.order {
		if o == obj {
			o.attached = false
			g.order = append(g.order[:i], g.order[i+1:]...)
			return
		}
	}
}

func (g *MemoryGraph) SetObjectGeometry(obj Object, geom Geometry) {
	if o, ok := obj.(*MemObject); ok {
		o.Geom = geom
	}
}

func (g *MemoryGraph) SetObjectVisibility(obj Object, visible bool) {
	if o, ok := obj.(*MemObject); ok {
		o.Visible = visible
	}
}

func (g *MemoryGraph) SetObjectOpacity(obj Object, opacity float64) {
	if o, ok := obj.(*MemObject); ok {
		o.Opacity = opacity
	}
}

// ReorderObject moves obj to index within the current order, clamping
// out-of-range targets the way canvas libraries do.
func (g *MemoryGraph) ReorderObject(obj Object, index int) {
	o, ok := obj.(*MemObject)
	if !ok {
		return
	}
	cur := -1
	for i, existing := range g.order {
		if existing == o {
			cur = i
			break
		}
	}
	if cur < 0 {
		return
	}
	g.order = append(g.order[:cur], g.order[cur+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(g.order) {
		index = len(g.order)
	}
	g.order = append(g.order[:index], append([]*MemObject{o}, g.order[index:]...)...)
}

func (g *MemoryGraph) ObjectOrder() []Object {
	out := make([]Object, len(g.order))
	for i, o := range g.order {
		out[i] = o
	}
	return out
}
