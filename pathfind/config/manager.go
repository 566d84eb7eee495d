package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/pathfinder/pathfind/maze"
	"github.com/wricardo/pathfinder/pathfind/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultName is preferred as the default maze when present
const DefaultName = "classic"

// Manager handles maze loading and caching
type Manager struct {
	configDir     string
	defaultConfig *maze.Config
	configs       map[string]*maze.Config
	mu            sync.RWMutex
}

// NewManager creates a manager for configDir, which must exist
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*maze.Config),
	}
	m.loadDefaultConfig()

	return m, nil
}

// Dir returns the directory the manager reads from
func (m *Manager) Dir() string {
	return m.configDir
}

// LoadConfig loads a maze by name, with or without the .json extension
func (m *Manager) LoadConfig(name string) (*maze.Config, error) {
	name = strings.TrimSuffix(name, ".json")
	if err := checkName(name); err != nil {
		return nil, err
	}

	m.mu.RLock()
	if cfg, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return cfg, nil
	}
	m.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(m.configDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := maze.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another loader may have won the race
	if cached, exists := m.configs[name]; exists {
		return cached, nil
	}
	m.configs[name] = cfg
	return cfg, nil
}

// ListConfigs returns every valid maze in the directory, sorted by filename.
// Invalid files are skipped.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		cfg, err := m.LoadConfig(name)
		if err != nil {
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    name,
			Name:        cfg.Name,
			Description: cfg.Description,
			GridSize:    cfg.GridSize,
			Heuristic:   cfg.HeuristicName(),
		})
	}

	return configs, nil
}

// GetDefault returns the default maze
func (m *Manager) GetDefault() *maze.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault makes the named maze the default
func (m *Manager) SetDefault(name string) error {
	cfg, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = cfg
	return nil
}

// RefreshCache drops every cached maze and picks the default again
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*maze.Config)
	m.mu.Unlock()

	m.loadDefaultConfig()
}

func (m *Manager) loadDefaultConfig() {
	cfg, err := m.LoadConfig(DefaultName)
	if err != nil {
		cfg = maze.Minimal()
		if configs, listErr := m.ListConfigs(); listErr == nil && len(configs) > 0 {
			if first, loadErr := m.LoadConfig(configs[0].ConfigID); loadErr == nil {
				cfg = first
			}
		}
	}

	m.mu.Lock()
	m.defaultConfig = cfg
	m.mu.Unlock()
}

// SaveConfig validates and writes a maze file, replacing any cached copy
func (m *Manager) SaveConfig(name string, cfg *maze.Config) error {
	name = strings.TrimSuffix(name, ".json")
	if err := checkName(name); err != nil {
		return err
	}
	if err := maze.Validate(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[name] = cfg
	m.mu.Unlock()

	return nil
}

// names are plain file stems; anything that could escape the directory is refused
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}
	return nil
}
