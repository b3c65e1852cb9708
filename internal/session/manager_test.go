package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/bananaslice/internal/history"
	"github.com/jask/bananaslice/internal/layer"
)

func newTestManager() *Manager {
	return NewManager(layer.NewStack(), history.New())
}

func TestCreateSessionActivatesEmptyDocument(t *testing.T) {
	m := newTestManager()
	id := m.CreateSession("")

	require.Equal(t, id, m.ActiveID())
	require.Equal(t, []string{id}, m.Tabs())
	require.Equal(t, "Untitled 1", m.Name())
	require.Zero(t, m.Stack().Count())
	require.False(t, m.History().Dirty())
}

func TestSwitchSessionRoundTripsLiveState(t *testing.T) {
	m := newTestManager()
	first := m.CreateSession("one")
	m.Stack().InitBase("bg", []byte("img"))
	layerID := m.Stack().AddLayer(layer.Spec{Kind: layer.KindImported, Name: "cat", Visible: true, Opacity: 100})
	m.Commit()
	m.SetView(ViewTransform{Zoom: 2, PanX: 10, PanY: -4})

	second := m.CreateSession("two")
	require.Equal(t, second, m.ActiveID())
	require.Zero(t, m.Stack().Count(), "live stores cleared for the new session")
	require.Equal(t, DefaultView(), m.View())

	m.SwitchSession(first)
	require.Equal(t, first, m.ActiveID())
	require.Equal(t, 2, m.Stack().Count())
	require.Equal(t, layerID, m.Stack().ActiveID())
	require.True(t, m.History().Dirty())
	require.True(t, m.History().CanUndo())
	require.Equal(t, ViewTransform{Zoom: 2, PanX: 10, PanY: -4}, m.View())
}

func TestSwitchSessionNoOps(t *testing.T) {
	m := newTestManager()
	id := m.CreateSession("one")
	m.Stack().InitBase("bg", nil)

	m.SwitchSession(id) // already active
	require.Equal(t, 1, m.Stack().Count())

	m.SwitchSession("missing")
	require.Equal(t, id, m.ActiveID())
	require.Equal(t, 1, m.Stack().Count())
}

func TestCloseDirtySessionIsBlocked(t *testing.T) {
	m := newTestManager()
	id := m.CreateSession("one")
	m.Stack().AddLayer(layer.Spec{Kind: layer.KindImported, Visible: true, Opacity: 100})
	m.Commit()

	require.False(t, m.CloseSession(id))
	require.Equal(t, id, m.ActiveID(), "registry unchanged after blocked close")
	require.Equal(t, []string{id}, m.Tabs())

	m.ForceCloseSession(id)
	require.Empty(t, m.ActiveID())
	require.Empty(t, m.Tabs())
	require.Zero(t, m.Stack().Count())
}

func TestCloseCleanSessionSucceeds(t *testing.T) {
	m := newTestManager()
	id := m.CreateSession("one")
	require.True(t, m.CloseSession(id))
	require.Empty(t, m.Tabs())
}

func TestCloseStoredDirtySessionReadsSnapshot(t *testing.T) {
	m := newTestManager()
	first := m.CreateSession("one")
	m.Stack().AddLayer(layer.Spec{Kind: layer.KindImported, Visible: true, Opacity: 100})
	m.Commit()
	m.CreateSession("two")

	require.True(t, m.HasUnsavedChanges(first))
	require.False(t, m.CloseSession(first), "stored snapshot dirtiness blocks close")
}

func TestForceCloseActivePicksClampedTab(t *testing.T) {
	m := newTestManager()
	a := m.CreateSession("a")
	b := m.CreateSession("b")
	c := m.CreateSession("c")
	_ = a

	// closing the last tab activates the new last tab
	require.Equal(t, c, m.ActiveID())
	m.ForceCloseSession(c)
	require.Equal(t, b, m.ActiveID())

	// closing a middle tab while active activates its successor
	m.SwitchSession(a)
	m.ForceCloseSession(a)
	require.Equal(t, b, m.ActiveID())
}

func TestForceCloseInactiveLeavesLiveAlone(t *testing.T) {
	m := newTestManager()
	first := m.CreateSession("one")
	second := m.CreateSession("two")
	m.Stack().InitBase("bg", nil)

	m.ForceCloseSession(first)
	require.Equal(t, second, m.ActiveID())
	require.Equal(t, 1, m.Stack().Count())
}

func TestFindSessionByPath(t *testing.T) {
	m := newTestManager()
	first := m.CreateSession("one")
	m.SetPath(`C:\Pictures\Holiday.bslice`)
	second := m.CreateSession("two")
	m.SetPath("/home/u/art/Sketch.bslice")

	require.Equal(t, first, m.FindSessionByPath("c:/pictures/holiday.bslice"))
	require.Equal(t, second, m.FindSessionByPath("/home/u/art/SKETCH.bslice"), "live path checked first")
	require.Empty(t, m.FindSessionByPath("/nowhere.bslice"))
	require.Empty(t, m.FindSessionByPath(""))
}

func TestUndoRedoThroughManager(t *testing.T) {
	m := newTestManager()
	m.CreateSession("one")
	m.Stack().InitBase("bg", nil)
	before := m.Stack().Layers()

	m.Commit()
	m.Stack().AddLayer(layer.Spec{Kind: layer.KindShape, Name: "circle", Visible: true, Opacity: 100})

	require.True(t, m.Undo())
	require.Equal(t, before, m.Stack().Layers())
	require.False(t, m.History().Dirty())

	require.True(t, m.Redo())
	require.Equal(t, 2, m.Stack().Count())
	require.True(t, m.History().Dirty())

	require.True(t, m.Undo())
	require.False(t, m.Undo(), "empty past is a silent no-op")
}

func TestNudgeRespectsBaseAndBounds(t *testing.T) {
	m := newTestManager()
	m.CreateSession("one")
	m.Stack().InitBase("bg", nil)
	a := m.Stack().AddLayer(layer.Spec{Kind: layer.KindImported, Name: "a", Visible: true, Opacity: 100})
	b := m.Stack().AddLayer(layer.Spec{Kind: layer.KindImported, Name: "b", Visible: true, Opacity: 100})

	require.False(t, m.MoveLayerDown(a), "cannot move below the base layer")
	require.False(t, m.MoveLayerUp(b), "already at the top")

	require.True(t, m.MoveLayerUp(a))
	layers := m.Stack().Layers()
	require.Equal(t, b, layers[1].ID)
	require.Equal(t, a, layers[2].ID)

	base, _ := m.Stack().Base()
	require.False(t, m.MoveLayerUp(base.ID))
}

func TestNudgeCommitsOnlyOnSuccess(t *testing.T) {
	m := newTestManager()
	m.CreateSession("one")
	m.Stack().InitBase("bg", nil)
	a := m.Stack().AddLayer(layer.Spec{Kind: layer.KindImported, Name: "a", Visible: true, Opacity: 100})
	b := m.Stack().AddLayer(layer.Spec{Kind: layer.KindImported, Name: "b", Visible: true, Opacity: 100})

	require.False(t, m.MoveLayerUp(b), "already at the top")
	require.False(t, m.MoveLayerDown(a), "already at the floor")
	require.False(t, m.History().Dirty(), "clamped moves are not commit boundaries")
	require.False(t, m.History().CanUndo())

	require.True(t, m.MoveLayerUp(a))
	require.True(t, m.History().Dirty())
	require.True(t, m.History().CanUndo())

	require.True(t, m.Undo())
	layers := m.Stack().Layers()
	require.Equal(t, a, layers[1].ID, "undo restores the pre-move order")
	require.Equal(t, b, layers[2].ID)
	require.False(t, m.History().Dirty())
}

func TestFindSessionByPathIgnoresStaleStoredPath(t *testing.T) {
	m := newTestManager()
	m.CreateSession("one")
	m.SetPath("/art/old.bslice")
	m.SaveActiveSessionState()

	m.SetPath("/art/new.bslice")
	require.Empty(t, m.FindSessionByPath("/art/old.bslice"), "the live path supersedes the stored one")
	require.Equal(t, m.ActiveID(), m.FindSessionByPath("/art/new.bslice"))
}

func TestAdoptDocumentMaterializes(t *testing.T) {
	m := newTestManager()
	doc := &Document{
		Name: "Loaded",
		Path: "/tmp/loaded.bslice",
		Base: &BaseImage{Data: []byte("png"), Width: 4, Height: 4, Format: "png"},
		Layers: []layer.Layer{
			{ID: "b", Order: 0, Kind: layer.KindBase, Name: "bg", Visible: true, Opacity: 100},
			{ID: "l", Order: 1, Kind: layer.KindImported, Name: "fg", Visible: true, Opacity: 80},
		},
		ActiveLayerID: "l",
	}
	id := m.AdoptDocument(doc)
	require.Equal(t, id, m.ActiveID())
	require.Equal(t, "Loaded", m.Name())
	require.Equal(t, 2, m.Stack().Count())
	require.Equal(t, "l", m.Stack().ActiveID())
	require.NotNil(t, m.Base())
	require.False(t, m.History().Dirty())
}
