package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/bananaslice/internal/config"
	"github.com/jask/bananaslice/internal/history"
	"github.com/jask/bananaslice/internal/layer"
	"github.com/jask/bananaslice/internal/llm"
	"github.com/jask/bananaslice/internal/prefs"
	"github.com/jask/bananaslice/internal/project"
	"github.com/jask/bananaslice/internal/recents"
	"github.com/jask/bananaslice/internal/scene"
	"github.com/jask/bananaslice/internal/secrets"
	"github.com/jask/bananaslice/internal/service"
	"github.com/jask/bananaslice/internal/session"
	"github.com/jask/bananaslice/internal/testdata"
	"github.com/jask/bananaslice/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.RecentsPath), 0o755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.AutosaveDir, 0o755); err != nil {
		log.Fatalf("mkdir autosave dir: %v", err)
	}

	if err := recents.RunMigrations(cfg.Storage.RecentsPath, "internal/recents/migrations"); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	store, err := recents.Open(cfg.Storage.RecentsPath)
	if err != nil {
		log.Fatalf("open recents db: %v", err)
	}
	defer store.Close()

	hist := history.New()
	hist.Limit = cfg.Canvas.MaxHistoryDepth
	sessions := session.NewManager(layer.NewStack(), hist)

	provider := llm.NewGeminiProvider(resolveAPIKey(cfg), cfg.LLM.Model)
	gen := &service.GenerateService{Provider: provider, Sessions: sessions}

	sync := scene.NewSynchronizer(scene.NewMemoryGraph(), sessions, scene.NopDeriver{})

	restoreWorkspace(sessions)
	if sessions.ActiveID() == "" {
		seedDemoSession(sessions)
	}

	app := tui.New(ctx, cfg, tui.Deps{
		Sessions: sessions,
		Sync:     sync,
		Generate: gen,
		Recents:  store,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}

	saveWorkspace(sessions)
}

// restoreWorkspace reopens the documents that were open last time.
func restoreWorkspace(sessions *session.Manager) {
	ws, err := prefs.LoadWorkspace()
	if err != nil {
		return
	}
	activeID := ""
	for _, path := range ws.OpenPaths {
		doc, err := project.Load(path)
		if err != nil {
			log.Printf("warn: skipping %s: %v", path, err)
			continue
		}
		id := sessions.AdoptDocument(doc)
		if path == ws.ActivePath {
			activeID = id
		}
	}
	if activeID != "" {
		sessions.SwitchSession(activeID)
	}
}

func saveWorkspace(sessions *session.Manager) {
	sessions.SaveActiveSessionState()
	ws := prefs.Workspace{}
	for _, id := range sessions.Tabs() {
		doc, ok := sessions.Get(id)
		if !ok || doc.Path == "" {
			continue
		}
		ws.OpenPaths = append(ws.OpenPaths, doc.Path)
		if id == sessions.ActiveID() {
			ws.ActivePath = doc.Path
		}
	}
	if err := prefs.SaveWorkspace(ws); err != nil {
		log.Printf("warn: save workspace: %v", err)
	}
}

// seedDemoSession gives first-run users something to poke at.
func seedDemoSession(sessions *session.Manager) {
	doc, err := testdata.SampleDocument()
	if err != nil {
		sessions.CreateSession("")
		return
	}
	sessions.AdoptDocument(doc)
}

func resolveAPIKey(cfg config.Config) string {
	provider := strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	env := strings.TrimSpace(cfg.LLM.APIKeyEnv)
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if k, err := secrets.FetchAPIKey(provider); err == nil {
		return k
	}
	return strings.TrimSpace(cfg.LLM.APIKey)
}
