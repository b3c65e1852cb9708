// Package prefs persists small non-document preferences, currently the
// set of project paths that were open when the app last quit.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const workspaceFile = "workspace.json"

// Workspace is the tab set to restore on launch.
type Workspace struct {
	OpenPaths  []string `json:"openPaths"`
	ActivePath string   `json:"activePath,omitempty"`
}

func workspacePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "bananaslice")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, workspaceFile), nil
}

func SaveWorkspace(ws Workspace) error {
	path, err := workspacePath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func LoadWorkspace() (Workspace, error) {
	path, err := workspacePath()
	if err != nil {
		return Workspace{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Workspace{}, nil
		}
		return Workspace{}, err
	}
	var ws Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}
