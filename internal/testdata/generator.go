// Package testdata builds sample documents for the demo flow and tests.
package testdata

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/google/uuid"

	"github.com/jask/bananaslice/internal/layer"
	"github.com/jask/bananaslice/internal/session"
)

// SampleDocument creates a small demo document: a colored base image
// and a few layers exercising visibility, opacity and placement.
func SampleDocument() (*session.Document, error) {
	base, err := SolidPNG(320, 200, color.RGBA{R: 245, G: 222, B: 179, A: 255})
	if err != nil {
		return nil, err
	}
	fg, err := SolidPNG(96, 96, color.RGBA{R: 255, G: 225, B: 53, A: 255})
	if err != nil {
		return nil, err
	}
	accent, err := SolidPNG(48, 48, color.RGBA{R: 110, G: 80, B: 40, A: 255})
	if err != nil {
		return nil, err
	}

	bananaID := uuid.NewString()
	doc := &session.Document{
		Name: "Demo",
		Base: &session.BaseImage{Data: base, Width: 320, Height: 200, Format: "png"},
		View: session.DefaultView(),
		Layers: []layer.Layer{
			{ID: uuid.NewString(), Order: 0, Kind: layer.KindBase, Name: "Background", Visible: true, Opacity: 100, ImageData: base},
			{
				ID: bananaID, Order: 1, Kind: layer.KindGenerated, Name: "Banana", Visible: true, Opacity: 100,
				ImageData: fg, OriginalImageData: fg,
				Bounds: &layer.Rect{X: 40, Y: 30, Width: 96, Height: 96},
			},
			{
				ID: uuid.NewString(), Order: 2, Kind: layer.KindShape, Name: "Shadow", Visible: false, Opacity: 40,
				ImageData: accent, OriginalImageData: accent,
				Bounds: &layer.Rect{X: 60, Y: 110, Width: 72, Height: 24},
			},
		},
		ActiveLayerID: bananaID,
	}
	return doc, nil
}

// SolidPNG encodes a single-color image, the cheapest valid PNG for
// exercising decode paths.
func SolidPNG(w, h int, c color.RGBA) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
