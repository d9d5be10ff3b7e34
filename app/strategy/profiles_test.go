package strategy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProfileCacheBuiltins(t *testing.T) {
	cache := NewProfileCache("")

	all := cache.All()
	if len(all) == 0 {
		t.Fatalf("Expected builtin profiles")
	}
	if _, ok := all["wprm"]; !ok {
		t.Errorf("Expected the wprm builtin profile")
	}
}

func TestProfileCacheMissingDirectory(t *testing.T) {
	cache := NewProfileCache("/nonexistent/profiles")

	if err := cache.Run(); err != nil {
		t.Errorf("Expected a missing directory to be fine, got: %v", err)
	}
}

func TestProfileCacheLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	profile := `host: example-kitchen.test
mode: sibling-headers
container: .recipe-card
header: h4
line: li.ing
sectioned_html: true
`
	if err := os.WriteFile(filepath.Join(dir, "example-kitchen.yml"), []byte(profile), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewProfileCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}

	loaded, ok := cache.All()["example-kitchen"]
	if !ok {
		t.Fatalf("Expected loaded profile 'example-kitchen'")
	}
	if loaded.Mode != ModeSiblingHeaders {
		t.Errorf("Expected mode '%s', got '%s'", ModeSiblingHeaders, loaded.Mode)
	}
	if !loaded.SectionedHTML {
		t.Errorf("Expected sectioned_html to be set")
	}
}

func TestProfileCacheRejectsProfileWithoutLineSelector(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("host: x.test\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewProfileCache(dir)
	if err := cache.Run(); err == nil {
		t.Errorf("Expected an error for a profile with no line selector")
	}
}

func TestProfileCacheForURL(t *testing.T) {
	dir := t.TempDir()
	profile := `host: example-kitchen.test
mode: flat-list
container: .recipe-card
line: li
`
	if err := os.WriteFile(filepath.Join(dir, "example-kitchen.yml"), []byte(profile), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewProfileCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.ForURL("https://www.example-kitchen.test/pasta"); !ok {
		t.Errorf("Expected host match for example-kitchen.test")
	}
	if _, ok := cache.ForURL("https://other.test/pasta"); ok {
		t.Errorf("Expected no match for an unknown host")
	}
}
