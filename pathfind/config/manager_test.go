package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/pathfinder/pathfind/maze"
)

func createValidConfig() *maze.Config {
	return &maze.Config{
		Name:        "Test Config",
		Description: "Test maze",
		GridSize:    5,
		Layout: []string{
			"S....",
			".###.",
			".#...",
			".#.#.",
			"...#G",
		},
		Heuristic: "diagonal",
	}
}

func writeConfigFile(t *testing.T, dir, name string, cfg *maze.Config) {
	t.Helper()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("non-existent directory", func(t *testing.T) {
		if _, err := NewManager("/non/existent/path"); err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory uses built-in default", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got %v", err)
		}
		def := manager.GetDefault()
		if def == nil {
			t.Fatal("Expected default config to be available")
		}
		if def.Name != maze.Minimal().Name {
			t.Errorf("Expected built-in default, got %q", def.Name)
		}
	})

	t.Run("classic preferred", func(t *testing.T) {
		dir := t.TempDir()
		first := createValidConfig()
		first.Name = "Alpha"
		writeConfigFile(t, dir, "alpha", first)
		classic := createValidConfig()
		classic.Name = "Classic"
		writeConfigFile(t, dir, "classic", classic)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Classic" {
			t.Errorf("Expected Classic as default, got %q", got)
		}
	})

	t.Run("first valid file without classic", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "aaa.json"), []byte(`{"name": ""}`), 0644); err != nil {
			t.Fatal(err)
		}
		other := createValidConfig()
		other.Name = "Other"
		writeConfigFile(t, dir, "other", other)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Other" {
			t.Errorf("Expected Other as default, got %q", got)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	easy := createValidConfig()
	easy.Name = "Easy"
	writeConfigFile(t, dir, "easy", easy)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		cfg, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Name != "Easy" {
			t.Errorf("Expected config name 'Easy', got '%s'", cfg.Name)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		if _, err := manager.LoadConfig("easy.json"); err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		c1, _ := manager.LoadConfig("easy")
		c2, _ := manager.LoadConfig("easy")
		if c1 != c2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		if _, err := manager.LoadConfig("non-existent"); err != ErrConfigNotFound {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "invalid.json"), []byte(`{"name": "x", "grid_size": 3}`), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("reject path traversal", func(t *testing.T) {
		_, err := manager.LoadConfig("../etc/passwd")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"open", "classic"} {
		cfg := createValidConfig()
		cfg.Name = name
		writeConfigFile(t, dir, name, cfg)
	}
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`not json`), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0644)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}
	if configs[0].ConfigID != "classic" || configs[1].ConfigID != "open" {
		t.Errorf("Unexpected order: %s, %s", configs[0].ConfigID, configs[1].ConfigID)
	}
	if configs[0].GridSize != 5 || configs[0].Heuristic != "diagonal" {
		t.Errorf("Unexpected info: %+v", configs[0])
	}
}

func TestManager_SaveAndRefresh(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	cfg := createValidConfig()
	cfg.Name = "Classic"
	if err := manager.SaveConfig("classic", cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "classic.json")); err != nil {
		t.Errorf("Expected file on disk: %v", err)
	}

	bad := createValidConfig()
	bad.Layout[0] = "....."
	if err := manager.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := manager.SaveConfig("../escape", cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for bad name, got %v", err)
	}

	manager.RefreshCache()
	if got := manager.GetDefault().Name; got != "Classic" {
		t.Errorf("Expected Classic after refresh, got %q", got)
	}

	if err := manager.SetDefault("missing"); err != ErrConfigNotFound {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_ConcurrentLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig())
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	manager.RefreshCache()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadConfig("classic"); err != nil {
				t.Errorf("LoadConfig failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
