// Package scene bridges the declarative layer stack and the imperative,
// mutable scene graph that actually paints the document.
//
// The rendering surface is an external collaborator consumed through the
// Graph interface; this package owns the synchronization protocol in
// both directions, the derived-image cache and the re-entrancy guard.
package scene

import (
	"context"

	"github.com/jask/bananaslice/internal/layer"
)

// Object is an opaque handle to one scene-graph object. Handles are
// comparable so the synchronizer can map them back to layer ids.
type Object interface{}

// Geometry is a scene-space placement: pixel offsets plus scale factors
// relative to the object's natural image size.
type Geometry struct {
	Left   float64
	Top    float64
	ScaleX float64
	ScaleY float64
}

// Graph is the mutable scene-graph surface. Implementations are expected
// to be stateful and order-sensitive; CreateObjectFromImage may decode
// asynchronously and is the synchronizer's suspension point.
type Graph interface {
	CreateObjectFromImage(ctx context.Context, data []byte) (Object, error)
	AddObject(obj Object)
	RemoveObject(obj Object)
	SetObjectGeometry(obj Object, g Geometry)
	SetObjectVisibility(obj Object, visible bool)
	SetObjectOpacity(obj Object, opacity float64)
	ReorderObject(obj Object, index int)
	ObjectOrder() []Object
}

// Deriver produces the effect-processed bytes for a layer. The pixel
// math lives behind this interface; the synchronizer only decides when
// to invoke and cache it.
type Deriver interface {
	Feather(ctx context.Context, img []byte, radius float64) ([]byte, error)
	Mask(ctx context.Context, img []byte, points []layer.Point) ([]byte, error)
}

// NopDeriver passes source bytes through untouched. Used until a real
// effects pipeline is plugged in, and by tests.
type NopDeriver struct{}

func (NopDeriver) Feather(_ context.Context, img []byte, _ float64) ([]byte, error) {
	return img, nil
}

func (NopDeriver) Mask(_ context.Context, img []byte, _ []layer.Point) ([]byte, error) {
	return img, nil
}
