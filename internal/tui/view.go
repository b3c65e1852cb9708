package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/bananaslice/internal/layer"
)

type styles struct {
	title     lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	selected  lipgloss.Style
	active    lipgloss.Style
	dim       lipgloss.Style
	status    lipgloss.Style
	footer    lipgloss.Style
	modal     lipgloss.Style
}

func newStyles(accent string) styles {
	if accent == "" {
		accent = "178"
	}
	ac := lipgloss.Color(accent)
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		tab:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1),
		activeTab: lipgloss.NewStyle().Foreground(ac).Bold(true).Padding(0, 1),
		selected:  lipgloss.NewStyle().Foreground(ac),
		active:    lipgloss.NewStyle().Bold(true),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 2),
		footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Padding(0, 2),
		modal:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (a *App) View() string {
	var body string
	switch a.state {
	case viewOpen:
		body = a.renderOpen()
	case viewSettings:
		body = a.renderSettings()
	default:
		body = a.renderEditor()
	}

	parts := []string{a.renderTabs(), body}
	if a.modal != modalNone {
		parts = append(parts, a.renderModal())
	}
	parts = append(parts, a.renderStatus(), a.renderFooter())
	return strings.Join(parts, "\n")
}

func (a *App) renderTabs() string {
	ids := a.sessions.Tabs()
	if len(ids) == 0 {
		return a.styles.title.Render("BananaSlice") + a.styles.dim.Render("  no open documents")
	}
	var tabs []string
	for _, id := range ids {
		name := "untitled"
		if id == a.sessions.ActiveID() {
			if n := a.sessions.Name(); n != "" {
				name = n
			}
		} else if doc, ok := a.sessions.Get(id); ok && doc.Name != "" {
			name = doc.Name
		}
		name = ansi.Truncate(name, 18, "…")
		if a.sessions.HasUnsavedChanges(id) {
			name += " •"
		}
		if id == a.sessions.ActiveID() {
			tabs = append(tabs, a.styles.activeTab.Render(name))
		} else {
			tabs = append(tabs, a.styles.tab.Render(name))
		}
	}
	return a.styles.title.Render("BananaSlice") + "  " + strings.Join(tabs, "")
}

func (a *App) renderEditor() string {
	var b strings.Builder

	b.WriteString(a.renderCanvasInfo())
	b.WriteString("\n\n")

	layers := a.panelLayers()
	if len(layers) == 0 {
		b.WriteString(a.styles.dim.Render("empty document. g to generate a layer, o to open a project"))
		return b.String()
	}

	b.WriteString(a.styles.title.Render("Layers"))
	b.WriteString("\n")
	activeID := a.sessions.Stack().ActiveID()
	for i, l := range layers {
		b.WriteString(a.renderLayerRow(l, i == a.layerCursor, l.ID == activeID))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderLayerRow(l layer.Layer, selected, active bool) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	eye := "●"
	if !l.Visible {
		eye = "○"
	}
	marker := " "
	if active {
		marker = "*"
	}
	name := ansi.Truncate(l.Name, 22, "…")
	if name == "" {
		name = string(l.Kind)
	}
	row := fmt.Sprintf("%s%s %s %-24s %-10s %3d%%", prefix, marker, eye, name, l.Kind, l.Opacity)
	if l.FeatherRadius > 0 {
		row += fmt.Sprintf("  feather %.0f", l.FeatherRadius)
	}
	switch {
	case selected:
		return a.styles.selected.Render(row)
	case active:
		return a.styles.active.Render(row)
	default:
		return row
	}
}

func (a *App) renderCanvasInfo() string {
	v := a.sessions.View()
	info := fmt.Sprintf("zoom %.0f%%  pan %+.0f%+.0f", v.Zoom*100, v.PanX, v.PanY)
	if base := a.sessions.Base(); base != nil {
		info = fmt.Sprintf("%dx%d %s  %s", base.Width, base.Height, base.Format, info)
	}
	if path := a.sessions.Path(); path != "" {
		info += "  " + a.styles.dim.Render(ansi.Truncate(path, 48, "…"))
	}
	return a.styles.dim.Render(info)
}

func (a *App) renderOpen() string {
	var b strings.Builder
	b.WriteString(a.styles.title.Render("Open recent"))
	b.WriteString("\n")
	if len(a.recentList) == 0 {
		b.WriteString(a.styles.dim.Render("no recent projects. t to type a path"))
		return b.String()
	}
	for i, e := range a.recentList {
		prefix := "  "
		if i == a.recentCursor {
			prefix = "> "
		}
		row := fmt.Sprintf("%s%-24s %dx%-6d %s", prefix,
			ansi.Truncate(e.Name, 24, "…"), e.BaseWidth, e.BaseHeight,
			e.LastOpenedAt.Format(a.dateFormat()))
		if i == a.recentCursor {
			row = a.styles.selected.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	b.WriteString(a.styles.dim.Render("enter open · t type path · x forget · esc back"))
	return b.String()
}

func (a *App) renderSettings() string {
	keyState := "not set"
	if a.cfg.LLM.APIKey != "" {
		keyState = "config file"
	}
	var b strings.Builder
	b.WriteString(a.styles.title.Render("Settings"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  provider      %s\n", a.cfg.LLM.Provider)
	fmt.Fprintf(&b, "  model         %s (m to change)\n", a.cfg.LLM.Model)
	fmt.Fprintf(&b, "  api key       %s (a to store in keychain)\n", keyState)
	fmt.Fprintf(&b, "  accent        %s (c to change)\n", a.cfg.UI.Accent)
	fmt.Fprintf(&b, "  history depth %d (h to change)\n", a.cfg.Canvas.MaxHistoryDepth)
	fmt.Fprintf(&b, "  recents db    %s\n", ansi.Truncate(a.cfg.Storage.RecentsPath, 56, "…"))
	b.WriteString(a.styles.dim.Render("  esc back"))
	return b.String()
}

func (a *App) renderModal() string {
	if a.modal == modalConfirmClose {
		name := "document"
		if doc, ok := a.sessions.Get(a.pendingClose); ok && doc.Name != "" {
			name = doc.Name
		} else if a.pendingClose == a.sessions.ActiveID() && a.sessions.Name() != "" {
			name = a.sessions.Name()
		}
		return a.styles.modal.Render(fmt.Sprintf("%q has unsaved changes. Discard? (y/n)", name))
	}
	titles := map[modalState]string{
		modalRename:       "Rename layer",
		modalGenerate:     "Generate layer",
		modalEditLayer:    "Edit layer",
		modalAPIKey:       "API key",
		modalOpenPath:     "Open path",
		modalAccent:       "Accent color",
		modalModel:        "Generation model",
		modalHistoryDepth: "History depth",
	}
	return a.styles.modal.Render(titles[a.modal] + "\n" + a.input.View())
}

func (a *App) renderStatus() string {
	return a.styles.status.Render(ansi.Truncate(a.status, max(a.width-4, 20), "…"))
}

func (a *App) renderFooter() string {
	k := a.keys
	bindings := []key.Binding{k.NextTab, k.NewTab, k.CloseTab, k.Open, k.Save, k.Undo, k.Redo,
		k.Visibility, k.Duplicate, k.Delete, k.Move, k.Opacity, k.Feather, k.Generate, k.Quit}
	var parts []string
	for _, b := range bindings {
		parts = append(parts, fmt.Sprintf("%s %s", b.Help().Key, b.Help().Desc))
	}
	return a.styles.footer.Render(ansi.Truncate(strings.Join(parts, " · "), max(a.width-4, 40), "…"))
}

func (a *App) dateFormat() string {
	if a.cfg.UI.DateFormat != "" {
		return a.cfg.UI.DateFormat + " 15:04"
	}
	return "02/01 15:04"
}
