package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/bananaslice/internal/config"
	"github.com/jask/bananaslice/internal/history"
	"github.com/jask/bananaslice/internal/layer"
	"github.com/jask/bananaslice/internal/scene"
	"github.com/jask/bananaslice/internal/service"
	"github.com/jask/bananaslice/internal/session"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	mgr := session.NewManager(layer.NewStack(), history.New())
	sync := scene.NewSynchronizer(scene.NewMemoryGraph(), mgr, scene.NopDeriver{})
	gen := &service.GenerateService{Sessions: mgr}
	cfg := config.Config{
		LLM: config.LLMConfig{Provider: "gemini", Model: "gemini-2.5-flash-image"},
		UI:  config.UIConfig{Accent: "178"},
	}
	return New(context.Background(), cfg, Deps{
		Sessions: mgr,
		Sync:     sync,
		Generate: gen,
	})
}

func press(t *testing.T, a *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		model, _ := a.Update(msg)
		require.IsType(t, &App{}, model)
	}
}

func TestNewDocumentAndTabs(t *testing.T) {
	a := newTestApp(t)
	press(t, a, "n", "n")

	require.Len(t, a.sessions.Tabs(), 2)
	require.Equal(t, "Untitled 2", a.sessions.Name())

	press(t, a, "tab")
	require.Equal(t, "Untitled 1", a.sessions.Name())
}

func TestViewRendersWithoutBase(t *testing.T) {
	a := newTestApp(t)
	press(t, a, "n")

	out := a.View()
	require.Contains(t, out, "BananaSlice")
	require.Contains(t, out, "Untitled 1")

	a.sessions.Stack().AddLayer(layer.Spec{Kind: layer.KindGenerated, Name: "Banana"})
	require.Contains(t, a.View(), "Banana")
}

func TestDirtyMarkerAndConfirmClose(t *testing.T) {
	a := newTestApp(t)
	press(t, a, "n")
	a.sessions.Commit()
	a.sessions.Stack().AddLayer(layer.Spec{Kind: layer.KindGenerated, Name: "Banana"})

	require.Contains(t, a.View(), "•")

	press(t, a, "w")
	require.Equal(t, modalConfirmClose, a.modal)
	require.Len(t, a.sessions.Tabs(), 1)

	press(t, a, "y")
	require.Equal(t, modalNone, a.modal)
	require.Empty(t, a.sessions.Tabs())
}

func TestRenameModalRoundtrip(t *testing.T) {
	a := newTestApp(t)
	press(t, a, "n")
	a.sessions.Stack().AddLayer(layer.Spec{Kind: layer.KindGenerated, Name: "Banana"})

	press(t, a, "m")
	require.Equal(t, modalRename, a.modal)

	a.input.SetValue("Peel")
	press(t, a, "enter")
	require.Equal(t, modalNone, a.modal)

	l, ok := a.cursorLayer()
	require.True(t, ok)
	require.Equal(t, "Peel", l.Name)
}

func TestLayerCursorTracksPanelOrder(t *testing.T) {
	a := newTestApp(t)
	press(t, a, "n")
	st := a.sessions.Stack()
	st.AddLayer(layer.Spec{Kind: layer.KindGenerated, Name: "Lower"})
	upper := st.AddLayer(layer.Spec{Kind: layer.KindGenerated, Name: "Upper"})

	// cursor 0 is the top-most layer
	l, ok := a.cursorLayer()
	require.True(t, ok)
	require.Equal(t, upper, l.ID)

	press(t, a, "j")
	l, ok = a.cursorLayer()
	require.True(t, ok)
	require.Equal(t, "Lower", l.Name)
}

func TestClampedEditsLeaveHistoryClean(t *testing.T) {
	a := newTestApp(t)
	press(t, a, "n")
	st := a.sessions.Stack()
	st.InitBase("bg", nil)
	st.AddLayer(layer.Spec{Kind: layer.KindGenerated, Name: "Lower", Visible: true, Opacity: 100})
	st.AddLayer(layer.Spec{Kind: layer.KindGenerated, Name: "Upper", Visible: true, Opacity: 100})

	pastLen := func() int {
		past, _ := a.sessions.History().Stacks()
		return len(past)
	}

	// cursor 0 is the top layer; it cannot move further up
	press(t, a, "K")
	require.False(t, a.sessions.History().Dirty(), "no-op move must not dirty the document")
	require.False(t, a.sessions.History().CanUndo())

	press(t, a, "J", "J") // down succeeds once, then hits the base floor
	require.Equal(t, 1, pastLen())
	require.True(t, a.sessions.History().Dirty())

	press(t, a, ">")
	require.Equal(t, 1, pastLen(), "opacity already at the ceiling")
	press(t, a, "<")
	require.Equal(t, 2, pastLen())

	press(t, a, "]", "[", "[") // the last step is clamped at zero
	require.Equal(t, 4, pastLen(), "only the two real feather changes committed")
}

func TestDuplicateBaseLayerIsRejected(t *testing.T) {
	a := newTestApp(t)
	press(t, a, "n")
	a.sessions.Stack().InitBase("bg", nil)

	press(t, a, "d")
	require.Equal(t, 1, a.sessions.Stack().Count())
	require.False(t, a.sessions.History().Dirty(), "rejected duplicate must not dirty the document")

	require.True(t, a.sessions.CloseSession(a.sessions.ActiveID()), "untouched document closes without confirmation")
}

func TestSettingsEditsPersistToConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("BANANASLICE_CONFIG", cfgPath)

	a := newTestApp(t)
	press(t, a, "n", "p")
	require.Equal(t, viewSettings, a.state)

	press(t, a, "c")
	require.Equal(t, modalAccent, a.modal)
	a.input.SetValue("201")
	press(t, a, "enter")
	require.Equal(t, "201", a.cfg.UI.Accent)

	press(t, a, "h")
	a.input.SetValue("25")
	press(t, a, "enter")
	require.Equal(t, 25, a.cfg.Canvas.MaxHistoryDepth)
	require.Equal(t, 25, a.sessions.History().Limit)

	_, err := os.Stat(cfgPath)
	require.NoError(t, err, "edits are written through config.Save")

	got, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "201", got.UI.Accent)
	require.Equal(t, 25, got.Canvas.MaxHistoryDepth)
}

func TestOpenViewEscapesBack(t *testing.T) {
	a := newTestApp(t)
	press(t, a, "n", "o")
	require.Equal(t, viewOpen, a.state)
	require.Contains(t, a.View(), "Open recent")

	press(t, a, "esc")
	require.Equal(t, viewEditor, a.state)
}
