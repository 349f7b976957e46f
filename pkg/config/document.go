// Package config merges explicit flags, config-file sections, environment
// variables, and defaults into one validated argument set per invocation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	appName         = "bibkit"
	repoLocalConfig = "bibkit.toml"
	userConfigName  = "config.toml"
)

// Document is a parsed configuration file: a global table of
// option-name→value pairs plus nested tables keyed by command name.
// All values are kept as raw strings; coercion happens during resolution.
type Document struct {
	Global   map[string]string
	Commands map[string]map[string]string
}

// EmptyDocument returns a document with no values, used when no config file
// was found.
func EmptyDocument() *Document {
	return &Document{
		Global:   map[string]string{},
		Commands: map[string]map[string]string{},
	}
}

// CommandValue looks up an option in a command-scoped table by its external
// (hyphenated) name.
func (d *Document) CommandValue(command, external string) (string, bool) {
	table, ok := d.Commands[command]
	if !ok {
		return "", false
	}
	v, ok := table[external]
	return v, ok
}

// GlobalValue looks up an option in the top-level table by its external name.
func (d *Document) GlobalValue(external string) (string, bool) {
	v, ok := d.Global[external]
	return v, ok
}

// DiscoverPath locates the config file: an explicitly given path wins, then
// a repo-local bibkit.toml, then the per-user XDG path. Returns false when
// no candidate exists; running without a config file is fine.
func DiscoverPath(explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if fi, err := os.Stat(repoLocalConfig); err == nil && fi.Mode().IsRegular() {
		return repoLocalConfig, true
	}
	userPath := filepath.Join(xdg.ConfigHome, appName, userConfigName)
	if fi, err := os.Stat(userPath); err == nil && fi.Mode().IsRegular() {
		return userPath, true
	}
	return "", false
}

// LoadDocument parses the config file at path. Top-level scalar keys form
// the global table; nested tables are command-scoped overrides. Values are
// flattened to strings so every source feeds the resolver the same way.
func LoadDocument(path string) (*Document, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	doc := EmptyDocument()
	for key, value := range v.AllSettings() {
		switch section := value.(type) {
		case map[string]any:
			table := make(map[string]string, len(section))
			for name, raw := range section {
				table[name] = stringify(raw)
			}
			doc.Commands[key] = table
		default:
			doc.Global[key] = stringify(value)
		}
	}
	return doc, nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
