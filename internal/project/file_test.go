package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/bananaslice/internal/layer"
	"github.com/jask/bananaslice/internal/session"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "art", "holiday.bslice")
	doc := &session.Document{
		Name: "Holiday",
		View: session.ViewTransform{Zoom: 1.5, PanX: 12, PanY: -3},
		Base: &session.BaseImage{Data: []byte{0x89, 0x50, 0x4e, 0x47}, Width: 640, Height: 480, Format: "png"},
		Layers: []layer.Layer{
			{ID: "b", Order: 0, Kind: layer.KindBase, Name: "bg", Visible: true, Opacity: 100},
			{
				ID: "l1", Order: 1, Kind: layer.KindGenerated, Name: "banana", Visible: true,
				Opacity: 85, ImageData: []byte{1, 2, 3}, OriginalImageData: []byte{1, 2, 3},
				Bounds: &layer.Rect{X: 10, Y: 20, Width: 64, Height: 64}, FeatherRadius: 4,
				PolygonPoints: []layer.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
			},
		},
		ActiveLayerID: "l1",
	}

	require.NoError(t, Save(path, doc))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Holiday", got.Name)
	require.Equal(t, path, got.Path)
	require.Equal(t, doc.View, got.View)
	require.Equal(t, doc.Layers, got.Layers)
	require.Equal(t, "l1", got.ActiveLayerID)
	require.Equal(t, doc.Base, got.Base)
	require.False(t, got.Dirty)
	require.Empty(t, got.Past)
}

func TestLoadRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.bslice")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"meta":{"appName":"SomethingElse"},"layers":[]}`), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidProjectFile)
}

func TestLoadRejectsMissingMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.bslice")
	require.NoError(t, os.WriteFile(path, []byte(`{"layers":[]}`), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidProjectFile)
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.bslice")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidProjectFile)
}

func TestLoadDefaultsNameAndView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "untitled.bslice")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"meta":{"appName":"BananaSlice"},"canvas":{"zoom":0},"layers":[]}`), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "untitled.bslice", got.Name)
	require.Equal(t, session.DefaultView(), got.View)
}
