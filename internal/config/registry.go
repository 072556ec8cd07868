package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/muurk/relayctl/internal/usbrelay"
)

const (
	appName    = "relayctl"
	configFile = "config.json"
)

// DefaultSerial is the registry key used for boards shipped without a
// programmed serial number, so aliases still work with a single anonymous
// board.
const DefaultSerial = "default"

// fileMutex serializes file writes so a save never races a reload.
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory.
//   - Linux: $XDG_CONFIG_HOME/relayctl or $HOME/.config/relayctl
//   - macOS: $HOME/.config/relayctl
//   - Windows: %LOCALAPPDATA%\relayctl
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	default:
		// Linux, macOS, and other Unix-like systems: XDG convention.
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Registry is the in-memory form of the configuration file: a generic JSON
// tree keyed by board serial number.
type Registry struct {
	path string
	tree map[string]any
}

// Load reads the registry from path. A missing file yields an empty
// registry bound to that path.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path, tree: make(map[string]any)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &r.tree); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return r, nil
}

// Path returns the file path the registry was loaded from.
func (r *Registry) Path() string {
	return r.path
}

// Save rewrites the configuration file wholesale. The write is atomic
// (temp file plus rename) so a crash never leaves a truncated config.
func (r *Registry) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(r.tree, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// Set walks keyPath ("serial.aliases.3") through the tree, creating nested
// objects as needed, and sets the leaf to value.
func (r *Registry) Set(keyPath, value string) error {
	keys := strings.Split(keyPath, ".")
	if len(keys) == 0 || keys[0] == "" {
		return fmt.Errorf("empty config key")
	}

	node := r.tree
	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[key] = child
		}
		node = child
	}
	node[keys[len(keys)-1]] = value
	return nil
}

// Get walks keyPath through the tree and returns the leaf string value.
func (r *Registry) Get(keyPath string) (string, bool) {
	keys := strings.Split(keyPath, ".")
	node := r.tree
	for i, key := range keys {
		if i == len(keys)-1 {
			s, ok := node[key].(string)
			return s, ok
		}
		child, ok := node[key].(map[string]any)
		if !ok {
			return "", false
		}
		node = child
	}
	return "", false
}

// SerialKey normalizes a board serial for use as a registry key.
func SerialKey(serial string) string {
	if serial == "" {
		return DefaultSerial
	}
	return serial
}

// Aliases returns the alias map (bit index string → name) configured for a
// board. The result is never nil.
func (r *Registry) Aliases(serial string) map[string]string {
	aliases := make(map[string]string)
	dev, ok := r.tree[SerialKey(serial)].(map[string]any)
	if !ok {
		return aliases
	}
	raw, ok := dev["aliases"].(map[string]any)
	if !ok {
		return aliases
	}
	for idx, v := range raw {
		if name, ok := v.(string); ok {
			aliases[idx] = name
		}
	}
	return aliases
}

// AliasFor returns the configured alias for a relay bit, or "" if none is
// set.
func (r *Registry) AliasFor(serial string, bit uint8) string {
	return r.Aliases(serial)[strconv.Itoa(int(bit))]
}

// SetAlias names a relay bit for a board.
func (r *Registry) SetAlias(serial string, bit uint8, name string) error {
	return r.Set(fmt.Sprintf("%s.aliases.%d", SerialKey(serial), bit), name)
}

// ResolvePort maps a port identifier to a relay bit index. The identifier
// is either an integer literal 0-7 or an alias configured for the board.
func (r *Registry) ResolvePort(serial, port string) (uint8, error) {
	if n, err := strconv.Atoi(port); err == nil {
		if n < 0 || n >= usbrelay.NumRelays {
			return 0, fmt.Errorf("relay index %d out of range 0-%d", n, usbrelay.NumRelays-1)
		}
		return uint8(n), nil
	}

	for idx, name := range r.Aliases(serial) {
		if name != port {
			continue
		}
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 || n >= usbrelay.NumRelays {
			return 0, fmt.Errorf("alias %q maps to invalid relay index %q", port, idx)
		}
		return uint8(n), nil
	}

	return 0, fmt.Errorf("unknown relay %q: not an index 0-%d and no such alias", port, usbrelay.NumRelays-1)
}

// Serials lists the board serials present in the registry, sorted.
func (r *Registry) Serials() []string {
	serials := make([]string, 0, len(r.tree))
	for serial := range r.tree {
		serials = append(serials, serial)
	}
	sort.Strings(serials)
	return serials
}
