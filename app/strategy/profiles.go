package strategy

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Extraction modes for site profiles.
const (
	ModeContainerSections = "container-sections" // sections are children of one container
	ModeSiblingHeaders    = "sibling-headers"    // headers are siblings followed by lists
	ModeFlatList          = "flat-list"          // single flat list with mixed entries
)

// SiteProfile is a declarative extraction descriptor for one site. It is
// data, not code: adding a site means adding a profile, never touching
// the selector logic.
type SiteProfile struct {
	Host          string `yaml:"host"`
	Mode          string `yaml:"mode"`
	Container     string `yaml:"container"`
	Section       string `yaml:"section"`
	Header        string `yaml:"header"`
	Line          string `yaml:"line"`
	SectionedHTML bool   `yaml:"sectioned_html"`
}

// builtinProfiles covers the recipe-card plugins and sites seen most
// often. Profiles loaded from the profiles directory are added on top.
var builtinProfiles = map[string]SiteProfile{
	"wprm": {
		Host:          "",
		Mode:          ModeContainerSections,
		Container:     ".wprm-recipe-ingredients-container",
		Section:       ".wprm-recipe-ingredient-group",
		Header:        ".wprm-recipe-group-name",
		Line:          "li.wprm-recipe-ingredient",
		SectionedHTML: true,
	},
	"tasty": {
		Host:      "",
		Mode:      ModeSiblingHeaders,
		Container: ".tasty-recipes-ingredients",
		Header:    "h4",
		Line:      "li",
	},
	"mv-create": {
		Host:      "",
		Mode:      ModeFlatList,
		Container: ".mv-create-ingredients",
		Line:      "li",
	},
	"jetpack": {
		Host:      "",
		Mode:      ModeFlatList,
		Container: ".jetpack-recipe-ingredients",
		Line:      "li.jetpack-recipe-ingredient",
	},
}

// ProfileCache holds the immutable site-profile table: builtins plus any
// YAML files found in the profiles directory, keyed by a short site
// identifier derived from the filename.
type ProfileCache struct {
	profilesDir string
	cache       map[string]SiteProfile
	mu          sync.RWMutex
}

func NewProfileCache(profilesDir string) *ProfileCache {
	cache := make(map[string]SiteProfile, len(builtinProfiles))
	for id, profile := range builtinProfiles {
		cache[id] = profile
	}
	return &ProfileCache{
		profilesDir: profilesDir,
		cache:       cache,
	}
}

// Run loads profile files from the profiles directory. A missing
// directory is fine; the builtin table still applies.
func (pc *ProfileCache) Run() error {
	if pc.profilesDir == "" {
		return nil
	}
	if _, err := os.Stat(pc.profilesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(pc.profilesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find profile files: %w", err)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	for _, file := range files {
		fileName := filepath.Base(file)
		id := fileName[:len(fileName)-len(".yml")]

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read profile %s: %w", file, err)
		}

		var profile SiteProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return fmt.Errorf("failed to parse profile %s: %w", file, err)
		}

		if profile.Line == "" {
			return fmt.Errorf("profile %s has no ingredient line selector", file)
		}
		if profile.Mode == "" {
			profile.Mode = ModeFlatList
		}

		pc.cache[id] = profile
		slog.Debug("Site profile loaded", "id", id, "mode", profile.Mode, "host", profile.Host)
	}

	return nil
}

// All returns a copy of the profile table.
func (pc *ProfileCache) All() map[string]SiteProfile {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	out := make(map[string]SiteProfile, len(pc.cache))
	for id, profile := range pc.cache {
		out[id] = profile
	}
	return out
}

// ForURL returns the profile whose declared host matches the URL's host,
// if any.
func (pc *ProfileCache) ForURL(rawURL string) (SiteProfile, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return SiteProfile{}, false
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")

	pc.mu.RLock()
	defer pc.mu.RUnlock()

	for _, profile := range pc.cache {
		if profile.Host != "" && strings.Contains(host, profile.Host) {
			return profile, true
		}
	}
	return SiteProfile{}, false
}
