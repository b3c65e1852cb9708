// Package tui is the terminal frontend over the editing engine.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/bananaslice/internal/config"
	"github.com/jask/bananaslice/internal/layer"
	"github.com/jask/bananaslice/internal/project"
	"github.com/jask/bananaslice/internal/recents"
	"github.com/jask/bananaslice/internal/scene"
	"github.com/jask/bananaslice/internal/secrets"
	"github.com/jask/bananaslice/internal/service"
	"github.com/jask/bananaslice/internal/session"
)

// App ties together views over the engine. All engine mutations happen
// on the update goroutine; only disk loads run as commands.
type App struct {
	ctx      context.Context
	cfg      config.Config
	sessions *session.Manager
	sync     *scene.Synchronizer
	gen      *service.GenerateService
	recents  *recents.Store

	state        appState
	modal        modalState
	layerCursor  int
	recentList   []recents.Entry
	recentCursor int
	input        textinput.Model
	pendingClose string // session awaiting discard confirmation
	status       string
	width        int
	height       int
	keys         keyMap
	styles       styles
}

type appState string

const (
	viewEditor   appState = "editor"
	viewOpen     appState = "open"
	viewSettings appState = "settings"
)

type modalState string

const (
	modalNone         modalState = ""
	modalRename       modalState = "rename"
	modalGenerate     modalState = "generate"
	modalEditLayer    modalState = "editLayer"
	modalConfirmClose modalState = "confirmClose"
	modalAPIKey       modalState = "apiKey"
	modalOpenPath     modalState = "openPath"
	modalAccent       modalState = "accent"
	modalModel        modalState = "model"
	modalHistoryDepth modalState = "historyDepth"
)

// Deps bundles everything the frontend drives.
type Deps struct {
	Sessions *session.Manager
	Sync     *scene.Synchronizer
	Generate *service.GenerateService
	Recents  *recents.Store
}

func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	in := textinput.New()
	in.CharLimit = 256
	return &App{
		ctx:      ctx,
		cfg:      cfg,
		sessions: deps.Sessions,
		sync:     deps.Sync,
		gen:      deps.Generate,
		recents:  deps.Recents,
		state:    viewEditor,
		input:    in,
		keys:     newKeyMap(),
		styles:   newStyles(cfg.UI.Accent),
		width:    100,
		height:   32,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadRecents()
}

func (a *App) loadRecents() tea.Cmd {
	return func() tea.Msg {
		if a.recents == nil {
			return recentsMsg(nil)
		}
		list, err := a.recents.List(a.ctx, 20)
		if err != nil {
			return errMsg{err}
		}
		return recentsMsg(list)
	}
}

type recentsMsg []recents.Entry

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		switch a.state {
		case viewOpen:
			return a.handleOpenKey(m)
		case viewSettings:
			return a.handleSettingsKey(m)
		default:
			return a.handleEditorKey(m)
		}
	case recentsMsg:
		a.recentList = []recents.Entry(m)
		if a.recentCursor >= len(a.recentList) {
			a.recentCursor = 0
		}
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) handleEditorKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "tab":
		a.switchTab(+1)
	case "shift+tab":
		a.switchTab(-1)
	case "n":
		a.sessions.CreateSession("")
		a.resetScene()
		a.layerCursor = 0
		a.status = "new document"
	case "w":
		a.requestClose(a.sessions.ActiveID())
	case "o":
		a.state = viewOpen
		a.status = ""
		return a, a.loadRecents()
	case "p":
		a.state = viewSettings
		a.status = ""
	case "s":
		a.saveProject()
	case "u":
		if a.sessions.Undo() {
			a.afterEdit()
			a.status = "undo"
		}
	case "ctrl+r":
		if a.sessions.Redo() {
			a.afterEdit()
			a.status = "redo"
		}
	case "up", "k":
		if a.layerCursor > 0 {
			a.layerCursor--
		}
	case "down", "j":
		if a.layerCursor < a.sessions.Stack().Count()-1 {
			a.layerCursor++
		}
	case "enter":
		if l, ok := a.cursorLayer(); ok {
			a.sessions.Stack().SetActive(l.ID)
		}
	case "v":
		if l, ok := a.cursorLayer(); ok {
			a.sessions.Commit()
			a.sessions.Stack().ToggleVisibility(l.ID)
			a.afterEdit()
		}
	case "x":
		if l, ok := a.cursorLayer(); ok {
			if l.Kind == layer.KindBase {
				a.status = "the background layer cannot be deleted"
				break
			}
			a.sessions.Commit()
			a.sessions.Stack().RemoveLayer(l.ID)
			a.clampLayerCursor()
			a.afterEdit()
		}
	case "d":
		if l, ok := a.cursorLayer(); ok && l.Kind != layer.KindBase {
			a.sessions.Commit()
			if id := a.sessions.Stack().Duplicate(l.ID); id != "" {
				a.afterEdit()
				a.status = "duplicated " + l.Name
			}
		}
	case "K":
		if l, ok := a.cursorLayer(); ok && a.sessions.MoveLayerUp(l.ID) {
			a.layerCursor = a.cursorForID(l.ID)
			a.afterEdit()
		}
	case "J":
		if l, ok := a.cursorLayer(); ok && a.sessions.MoveLayerDown(l.ID) {
			a.layerCursor = a.cursorForID(l.ID)
			a.afterEdit()
		}
	case ">":
		a.adjustOpacity(+10)
	case "<":
		a.adjustOpacity(-10)
	case "]":
		a.adjustFeather(+1)
	case "[":
		a.adjustFeather(-1)
	case "+", "=":
		a.adjustZoom(1.25)
	case "-":
		a.adjustZoom(0.8)
	case "m":
		if l, ok := a.cursorLayer(); ok {
			a.openModal(modalRename, l.Name, "layer name")
		}
	case "g":
		a.openModal(modalGenerate, "", "describe the image to generate")
	case "e":
		if l, ok := a.cursorLayer(); ok && l.Kind != layer.KindBase {
			a.openModal(modalEditLayer, "", "describe the change")
		}
	}
	return a, nil
}

func (a *App) handleOpenKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.state = viewEditor
	case "up", "k":
		if a.recentCursor > 0 {
			a.recentCursor--
		}
	case "down", "j":
		if a.recentCursor < len(a.recentList)-1 {
			a.recentCursor++
		}
	case "enter":
		if a.recentCursor < len(a.recentList) {
			a.openProject(a.recentList[a.recentCursor].Path)
		}
	case "t":
		a.openModal(modalOpenPath, "", "path to .bslice file")
	case "x":
		if a.recentCursor < len(a.recentList) && a.recents != nil {
			path := a.recentList[a.recentCursor].Path
			if err := a.recents.Remove(a.ctx, path); err != nil {
				a.status = "error: " + err.Error()
				break
			}
			return a, a.loadRecents()
		}
	}
	return a, nil
}

func (a *App) handleSettingsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.state = viewEditor
	case "a":
		a.openModal(modalAPIKey, "", fmt.Sprintf("%s api key", a.cfg.LLM.Provider))
	case "c":
		a.openModal(modalAccent, a.cfg.UI.Accent, "accent color (ansi 256)")
	case "m":
		a.openModal(modalModel, a.cfg.LLM.Model, "generation model")
	case "h":
		a.openModal(modalHistoryDepth, strconv.Itoa(a.cfg.Canvas.MaxHistoryDepth), "max undo depth")
	}
	return a, nil
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.modal == modalConfirmClose {
		switch m.String() {
		case "y":
			a.sessions.ForceCloseSession(a.pendingClose)
			a.pendingClose = ""
			a.modal = modalNone
			a.resetScene()
			a.clampLayerCursor()
			a.status = "closed without saving"
		case "n", "esc":
			a.pendingClose = ""
			a.modal = modalNone
		}
		return a, nil
	}

	switch m.String() {
	case "esc":
		a.modal = modalNone
		a.input.Blur()
		return a, nil
	case "enter":
		value := strings.TrimSpace(a.input.Value())
		modal := a.modal
		a.modal = modalNone
		a.input.Blur()
		a.submitModal(modal, value)
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	return a, cmd
}

func (a *App) submitModal(modal modalState, value string) {
	switch modal {
	case modalRename:
		if l, ok := a.cursorLayer(); ok && value != "" {
			a.sessions.Commit()
			a.sessions.Stack().Rename(l.ID, value)
			a.afterEdit()
		}
	case modalGenerate:
		id, err := a.gen.AddGeneratedLayer(a.ctx, value)
		if err != nil {
			a.status = "error: " + err.Error()
			return
		}
		a.afterEdit()
		a.layerCursor = a.cursorForID(id)
		a.status = "layer generated"
	case modalEditLayer:
		if err := a.gen.EditActiveLayer(a.ctx, value); err != nil {
			a.status = "error: " + err.Error()
			return
		}
		a.afterEdit()
		a.status = "layer updated"
	case modalAPIKey:
		if err := secrets.StoreAPIKey(a.cfg.LLM.Provider, value); err != nil {
			a.status = "error: " + err.Error()
			return
		}
		a.status = "api key stored"
	case modalOpenPath:
		if value != "" {
			a.openProject(value)
		}
	case modalAccent:
		if value == "" {
			return
		}
		a.cfg.UI.Accent = value
		a.styles = newStyles(value)
		a.persistConfig()
	case modalModel:
		if value == "" {
			return
		}
		a.cfg.LLM.Model = value
		a.persistConfig()
	case modalHistoryDepth:
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 0 {
			a.status = "history depth must be a non-negative number"
			return
		}
		a.cfg.Canvas.MaxHistoryDepth = depth
		a.sessions.History().Limit = depth
		a.persistConfig()
	}
}

func (a *App) persistConfig() {
	if err := config.Save(a.cfg); err != nil {
		a.status = "error: " + err.Error()
		return
	}
	a.status = "settings saved"
}

func (a *App) openModal(modal modalState, value, placeholder string) {
	a.modal = modal
	a.input.Placeholder = placeholder
	a.input.SetValue(value)
	a.input.CursorEnd()
	a.input.Focus()
}

// afterEdit runs one reconciliation pass after an engine mutation.
func (a *App) afterEdit() {
	if err := a.sync.Reconcile(a.ctx); err != nil {
		a.status = "error: " + err.Error()
	}
}

// resetScene tears down the outgoing document's scene objects and
// rebuilds for whatever is now live.
func (a *App) resetScene() {
	a.sync.Reset()
	if err := a.sync.SetBaseReady(a.ctx); err != nil {
		a.status = "error: " + err.Error()
	}
	a.afterEdit()
}

func (a *App) switchTab(delta int) {
	tabs := a.sessions.Tabs()
	if len(tabs) < 2 {
		return
	}
	cur := 0
	for i, id := range tabs {
		if id == a.sessions.ActiveID() {
			cur = i
			break
		}
	}
	next := (cur + delta + len(tabs)) % len(tabs)
	a.sessions.SwitchSession(tabs[next])
	a.resetScene()
	a.clampLayerCursor()
}

func (a *App) requestClose(id string) {
	if id == "" {
		return
	}
	if a.sessions.CloseSession(id) {
		a.resetScene()
		a.clampLayerCursor()
		a.status = "closed"
		return
	}
	// dirty; ask before discarding
	a.pendingClose = id
	a.modal = modalConfirmClose
}

func (a *App) saveProject() {
	if a.sessions.ActiveID() == "" {
		return
	}
	path := a.sessions.Path()
	if path == "" {
		name := a.sessions.Name()
		if name == "" {
			name = "untitled"
		}
		path = filepath.Join(a.cfg.Storage.AutosaveDir, sanitizeFileName(name)+".bslice")
	}
	a.sessions.SetPath(path)
	a.sessions.SaveActiveSessionState()
	doc, ok := a.sessions.Get(a.sessions.ActiveID())
	if !ok {
		return
	}
	if err := project.Save(path, doc); err != nil {
		a.status = "error: " + err.Error()
		return
	}
	a.sessions.History().MarkClean()
	a.sessions.SaveActiveSessionState()
	a.touchRecent(path, doc)
	a.status = "saved " + path
}

func (a *App) openProject(path string) {
	if id := a.sessions.FindSessionByPath(path); id != "" {
		a.sessions.SwitchSession(id)
		a.resetScene()
		a.state = viewEditor
		a.status = "already open"
		return
	}
	doc, err := project.Load(path)
	if err != nil {
		if errors.Is(err, project.ErrInvalidProjectFile) || os.IsNotExist(err) {
			a.status = "error: " + err.Error()
			a.suggestRecent(path)
			return
		}
		a.status = "error: " + err.Error()
		return
	}
	a.sessions.AdoptDocument(doc)
	a.resetScene()
	a.touchRecent(path, doc)
	a.layerCursor = 0
	a.state = viewEditor
	a.status = "opened " + doc.Name
}

func (a *App) suggestRecent(path string) {
	if a.recents == nil {
		return
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if e, ok, err := a.recents.Suggest(a.ctx, name); err == nil && ok {
		a.status += fmt.Sprintf(" (did you mean %s?)", e.Name)
	}
}

func (a *App) touchRecent(path string, doc *session.Document) {
	if a.recents == nil {
		return
	}
	e := recents.Entry{Path: path, Name: doc.Name}
	if doc.Base != nil {
		e.BaseWidth = doc.Base.Width
		e.BaseHeight = doc.Base.Height
	}
	if err := a.recents.Touch(a.ctx, e); err != nil {
		a.status = "error: " + err.Error()
	}
}

func (a *App) adjustOpacity(delta int) {
	l, ok := a.cursorLayer()
	if !ok {
		return
	}
	v := l.Opacity + delta
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	if v == l.Opacity {
		return // clamped away; not a commit boundary
	}
	a.sessions.Commit()
	a.sessions.Stack().SetOpacity(l.ID, v)
	a.afterEdit()
}

func (a *App) adjustFeather(delta float64) {
	l, ok := a.cursorLayer()
	if !ok || l.Kind == layer.KindBase {
		return
	}
	r := l.FeatherRadius + delta
	if r < 0 {
		r = 0
	}
	if r == l.FeatherRadius {
		return
	}
	a.sessions.Commit()
	a.sessions.Stack().SetFeatherRadius(l.ID, r)
	a.afterEdit()
}

func (a *App) adjustZoom(factor float64) {
	v := a.sessions.View()
	v.Zoom *= factor
	a.sessions.SetView(v)
	a.afterEdit()
}

// cursorLayer resolves the panel cursor (top-most first) to a layer.
func (a *App) cursorLayer() (layer.Layer, bool) {
	layers := a.panelLayers()
	if a.layerCursor < 0 || a.layerCursor >= len(layers) {
		return layer.Layer{}, false
	}
	return layers[a.layerCursor], true
}

// panelLayers lists layers the way a layer panel shows them: top-most
// first.
func (a *App) panelLayers() []layer.Layer {
	layers := a.sessions.Stack().Layers()
	out := make([]layer.Layer, len(layers))
	for i, l := range layers {
		out[len(layers)-1-i] = l
	}
	return out
}

func (a *App) cursorForID(id string) int {
	for i, l := range a.panelLayers() {
		if l.ID == id {
			return i
		}
	}
	return 0
}

func (a *App) clampLayerCursor() {
	if n := a.sessions.Stack().Count(); a.layerCursor >= n {
		a.layerCursor = 0
	}
}

func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return strings.ToLower(b.String())
}
