package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeManifest creates dir/name/plugin.json for m.
func writeManifest(t *testing.T, dir, name string, m Manifest) string {
	t.Helper()

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()

	pluginDir := writeManifest(t, tmpDir, "chime", Manifest{
		Name:        "chime",
		Version:     "1.0.0",
		Description: "Plays a sound",
		Executable:  "chime",
		Events:      []string{EventResolved},
		Config:      json.RawMessage(`{"volume":0.5}`),
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "chime" || plugin.Manifest.Version != "1.0.0" {
		t.Errorf("unexpected manifest %+v", plugin.Manifest)
	}
	if plugin.Path != pluginDir {
		t.Errorf("expected path %q, got %q", pluginDir, plugin.Path)
	}
	if plugin.Executable != filepath.Join(pluginDir, "chime") {
		t.Errorf("unexpected executable %q", plugin.Executable)
	}
	if string(plugin.Manifest.Config) != `{"volume":0.5}` {
		t.Errorf("unexpected config %s", plugin.Manifest.Config)
	}
}

func TestManager_Discover_Skips(t *testing.T) {
	tmpDir := t.TempDir()

	writeManifest(t, tmpDir, "good", Manifest{Name: "good", Executable: "good"})
	writeManifest(t, tmpDir, "nameless", Manifest{Executable: "x"})

	bad := filepath.Join(tmpDir, "bad")
	os.MkdirAll(bad, 0755)
	os.WriteFile(filepath.Join(bad, "plugin.json"), []byte("{not json"), 0644)

	os.MkdirAll(filepath.Join(tmpDir, "no-manifest"), 0755)
	os.WriteFile(filepath.Join(tmpDir, "stray-file"), []byte("x"), 0644)

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Errorf("expected only the good plugin, got %d", len(plugins))
	}
}

func TestManager_Discover_Empty(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{"empty dir", func(t *testing.T) string { return t.TempDir() }},
		{"missing dir", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }},
		{"file instead of dir", func(t *testing.T) string {
			p := filepath.Join(t.TempDir(), "file")
			os.WriteFile(p, nil, 0644)
			return p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(tt.dir(t))
			if err := manager.Discover(); err != nil {
				t.Fatalf("Discover() failed: %v", err)
			}
			if len(manager.List()) != 0 {
				t.Error("expected no plugins")
			}
		})
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	tmpDir := t.TempDir()
	pluginDir := writeManifest(t, tmpDir, "a", Manifest{Name: "a", Executable: "a"})

	manager := NewManager(tmpDir)
	manager.Discover()
	os.RemoveAll(pluginDir)
	manager.Discover()

	if len(manager.List()) != 0 {
		t.Error("removed plugin should be forgotten after rediscovery")
	}
}

func TestManager_Get(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "chime", Manifest{Name: "chime", Executable: "chime"})

	manager := NewManager(tmpDir)
	manager.Discover()

	plugin, err := manager.Get("chime")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if plugin.Manifest.Name != "chime" {
		t.Errorf("expected chime, got %q", plugin.Manifest.Name)
	}

	if _, err := manager.Get("missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_ForEvent(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "b", Manifest{Name: "b", Executable: "b", Events: []string{EventResolved}})
	writeManifest(t, tmpDir, "a", Manifest{Name: "a", Executable: "a", Events: []string{EventOrder, EventResolved}})
	writeManifest(t, tmpDir, "c", Manifest{Name: "c", Executable: "c"})

	manager := NewManager(tmpDir)
	manager.Discover()

	tests := []struct {
		event string
		want  []string
	}{
		{EventResolved, []string{"a", "b"}},
		{EventOrder, []string{"a"}},
		{EventCountdown, nil},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			got := manager.ForEvent(tt.event)
			if len(got) != len(tt.want) {
				t.Fatalf("ForEvent(%s) returned %d plugins, want %d", tt.event, len(got), len(tt.want))
			}
			for i, p := range got {
				if p.Manifest.Name != tt.want[i] {
					t.Errorf("ForEvent(%s)[%d] = %s, want %s", tt.event, i, p.Manifest.Name, tt.want[i])
				}
			}
		})
	}
}

func TestManager_PluginDir(t *testing.T) {
	manager := NewManager("/some/plugins")
	if manager.PluginDir() != "/some/plugins" {
		t.Errorf("unexpected plugin dir %q", manager.PluginDir())
	}
}
