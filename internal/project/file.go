// Package project reads and writes .bslice project files: a structured
// JSON snapshot of one document.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jask/bananaslice/internal/layer"
	"github.com/jask/bananaslice/internal/session"
)

// AppName is the marker a valid project file must carry in meta.appName.
const AppName = "BananaSlice"

// FormatVersion is written to new files; older versions load as-is for
// now since the layer normalizer absorbs structural drift.
const FormatVersion = 1

// ErrInvalidProjectFile reports a file missing the expected application
// marker. The check happens before any store is touched.
var ErrInvalidProjectFile = errors.New("not a BananaSlice project file")

// File is the on-disk shape.
type File struct {
	Version       int           `json:"version"`
	Meta          Meta          `json:"meta"`
	Canvas        Canvas        `json:"canvas"`
	BaseImage     *BaseImage    `json:"baseImage,omitempty"`
	Layers        []layer.Layer `json:"layers"`
	ActiveLayerID string        `json:"activeLayerId,omitempty"`
}

type Meta struct {
	AppName string    `json:"appName"`
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`
}

type Canvas struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

type BaseImage struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Data   []byte `json:"data"` // base64 in JSON
}

// Save writes doc to path atomically (tmp file + rename).
func Save(path string, doc *session.Document) error {
	f := File{
		Version:       FormatVersion,
		Meta:          Meta{AppName: AppName, Name: doc.Name, SavedAt: time.Now().UTC()},
		Canvas:        Canvas{Zoom: doc.View.Zoom, PanX: doc.View.PanX, PanY: doc.View.PanY},
		Layers:        doc.Layers,
		ActiveLayerID: doc.ActiveLayerID,
	}
	if doc.Base != nil {
		f.BaseImage = &BaseImage{
			Width:  doc.Base.Width,
			Height: doc.Base.Height,
			Format: doc.Base.Format,
			Data:   doc.Base.Data,
		}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir project dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load reads a project file into a fresh document. The appName marker is
// verified before anything else so a bad file can never leave partial
// state behind; the document carries clean history and no dirty flag.
func Load(path string) (*session.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if f.Meta.AppName != AppName {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidProjectFile)
	}

	doc := &session.Document{
		Name:          f.Meta.Name,
		Path:          path,
		View:          session.ViewTransform{Zoom: f.Canvas.Zoom, PanX: f.Canvas.PanX, PanY: f.Canvas.PanY},
		Layers:        f.Layers,
		ActiveLayerID: f.ActiveLayerID,
	}
	if doc.Name == "" {
		doc.Name = filepath.Base(path)
	}
	if doc.View.Zoom == 0 {
		doc.View = session.DefaultView()
	}
	if f.BaseImage != nil {
		doc.Base = &session.BaseImage{
			Data:   f.BaseImage.Data,
			Width:  f.BaseImage.Width,
			Height: f.BaseImage.Height,
			Format: f.BaseImage.Format,
		}
	}
	return doc, nil
}
