package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yml
var builtinLanguages []byte

// LanguageInfo holds the fields of a linguist-style language entry that
// matter for file selection.
type LanguageInfo struct {
	Type       string   `yaml:"type"`
	Extensions []string `yaml:"extensions"`
	Aliases    []string `yaml:"aliases"`
}

// LanguageMap maps language names (e.g. "Go") to their details.
type LanguageMap map[string]LanguageInfo

// LanguageData is a parsed language file with a case-insensitive name index.
type LanguageData struct {
	Langs LanguageMap
	index map[string]string // lower-case name or alias -> language name
}

// ParseLanguages parses a languages.yml document.
func ParseLanguages(raw []byte) (*LanguageData, error) {
	var langs LanguageMap
	if err := yaml.Unmarshal(raw, &langs); err != nil {
		return nil, fmt.Errorf("error parsing language definitions: %w", err)
	}

	data := &LanguageData{Langs: langs, index: make(map[string]string)}
	for name, info := range langs {
		data.index[strings.ToLower(name)] = name
		for _, alias := range info.Aliases {
			key := strings.ToLower(alias)
			if _, taken := data.index[key]; !taken {
				data.index[key] = name
			}
		}
	}
	return data, nil
}

// LoadLanguages reads language definitions from path. With an empty path it
// looks for languages.yml in $HOME/.config/codecat and the working directory,
// and falls back to the built-in table.
func LoadLanguages(path string) (*LanguageData, error) {
	if path == "" {
		path = findLanguageFile()
	}
	if path == "" {
		return ParseLanguages(builtinLanguages)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading language file %s: %w", path, err)
	}
	data, err := ParseLanguages(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func findLanguageFile() string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "codecat"))
	}
	dirs = append(dirs, ".")

	for _, dir := range dirs {
		candidate := filepath.Join(dir, "languages.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// ExtensionsFor returns the extensions of the named languages, matched by
// name or alias ignoring case. Unknown names are an error.
func (ld *LanguageData) ExtensionsFor(names []string) ([]string, error) {
	var exts []string
	var unknown []string
	for _, name := range names {
		lang, ok := ld.index[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		exts = append(exts, ld.Langs[lang].Extensions...)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown language(s): %s", strings.Join(unknown, ", "))
	}
	return exts, nil
}
