package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/bananaslice/internal/history"
	"github.com/jask/bananaslice/internal/layer"
	"github.com/jask/bananaslice/internal/llm"
	"github.com/jask/bananaslice/internal/session"
)

func newTestService() (*GenerateService, *session.Manager) {
	mgr := session.NewManager(layer.NewStack(), history.New())
	svc := &GenerateService{Provider: llm.NewGeminiProvider("", "gemini-test"), Sessions: mgr}
	return svc, mgr
}

func TestAddGeneratedLayer(t *testing.T) {
	svc, mgr := newTestService()
	mgr.CreateSession("doc")
	mgr.Stack().InitBase("bg", nil)
	mgr.SetBase(&session.BaseImage{Width: 64, Height: 32, Format: "png"})

	id, err := svc.AddGeneratedLayer(context.Background(), "a tiny banana")
	require.NoError(t, err)

	l, ok := mgr.Stack().Get(id)
	require.True(t, ok)
	require.Equal(t, layer.KindGenerated, l.Kind)
	require.Equal(t, "a tiny banana", l.Name)
	require.NotEmpty(t, l.ImageData)
	require.Equal(t, l.ImageData, l.OriginalImageData)
	require.Equal(t, id, mgr.Stack().ActiveID())
	require.True(t, mgr.History().CanUndo(), "generation is one commit boundary")

	require.True(t, mgr.Undo())
	_, ok = mgr.Stack().Get(id)
	require.False(t, ok, "undo removes the generated layer")
}

func TestAddGeneratedLayerValidation(t *testing.T) {
	svc, mgr := newTestService()

	_, err := svc.AddGeneratedLayer(context.Background(), "x")
	require.Error(t, err, "no active session")

	mgr.CreateSession("doc")
	_, err = svc.AddGeneratedLayer(context.Background(), "   ")
	require.Error(t, err, "empty prompt")
}

func TestEditActiveLayerRetainsSource(t *testing.T) {
	svc, mgr := newTestService()
	mgr.CreateSession("doc")
	mgr.Stack().InitBase("bg", nil)

	id, err := svc.AddGeneratedLayer(context.Background(), "source")
	require.NoError(t, err)
	before, _ := mgr.Stack().Get(id)

	require.NoError(t, svc.EditActiveLayer(context.Background(), "make it blue"))

	after, _ := mgr.Stack().Get(id)
	require.NotEqual(t, before.ImageData, after.ImageData)
	require.Equal(t, before.OriginalImageData, after.OriginalImageData, "pre-transform source survives edits")
}

func TestEditBaseLayerRefused(t *testing.T) {
	svc, mgr := newTestService()
	mgr.CreateSession("doc")
	baseID := mgr.Stack().InitBase("bg", nil)
	mgr.Stack().SetActive(baseID)

	require.Error(t, svc.EditActiveLayer(context.Background(), "x"))
}
