package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/winforge/winforge/pkg/engine"
)

const testCatalogJSON = `{
  "version": "1.0",
  "defaultPriority": 50,
  "items": [
    {
      "id": "apps.vscode",
      "type": "app",
      "displayName": "Visual Studio Code",
      "winget": {"packageId": "Microsoft.VisualStudioCode", "source": "winget", "scope": "user"}
    },
    {
      "id": "apps.git",
      "type": "app",
      "displayName": "Git",
      "priority": 10,
      "winget": {"packageId": "Git.Git", "override": "/VERYSILENT"}
    },
    {
      "id": "tweaks.taskbar",
      "type": "script",
      "displayName": "Taskbar layout",
      "priority": 90,
      "script": {"path": "tweaks/taskbar.ps1", "parameters": {"Mode": "compact"}, "restartExplorer": true}
    }
  ]
}`

func itemIDs(items []engine.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func findItem(t *testing.T, items []engine.Item, id string) engine.Item {
	t.Helper()
	for _, item := range items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("Item %s not found", id)
	return engine.Item{}
}

func TestParse(t *testing.T) {
	items, err := NewLoader().Parse([]byte(testCatalogJSON))
	if err != nil {
		t.Fatalf("Failed to parse catalog: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}

	// Sorted by effective priority: explicit 10, default 50, explicit 90.
	want := []string{"apps.git", "apps.vscode", "tweaks.taskbar"}
	got := itemIDs(items)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}

	git := findItem(t, items, "apps.git")
	if git.Type != engine.ItemTypeApp || git.Category != "apps" {
		t.Errorf("Expected app item in apps category, got %+v", git)
	}
	if git.EffectivePriority != 10 {
		t.Errorf("Expected explicit priority 10, got %d", git.EffectivePriority)
	}
	if git.Winget == nil || git.Winget.Override == nil || *git.Winget.Override != "/VERYSILENT" {
		t.Errorf("Expected override loaded, got %+v", git.Winget)
	}

	vscode := findItem(t, items, "apps.vscode")
	if vscode.EffectivePriority != 50 {
		t.Errorf("Expected default priority 50, got %d", vscode.EffectivePriority)
	}
	if vscode.Winget.Override != nil {
		t.Errorf("Expected nil override, got %q", *vscode.Winget.Override)
	}

	taskbar := findItem(t, items, "tweaks.taskbar")
	if taskbar.Type != engine.ItemTypeScript || taskbar.Category != "tweaks" {
		t.Errorf("Expected script item in tweaks category, got %+v", taskbar)
	}
	if taskbar.Script == nil || !taskbar.Script.RestartExplorer {
		t.Errorf("Expected restart-explorer flag, got %+v", taskbar.Script)
	}
	if taskbar.Script.Parameters["Mode"] != "compact" {
		t.Errorf("Expected parameters loaded, got %v", taskbar.Script.Parameters)
	}
}

func TestParse_DuplicateID(t *testing.T) {
	doc := `{
  "version": "1.0",
  "items": [
    {"id": "apps.git", "type": "app", "displayName": "Git", "winget": {"packageId": "Git.Git"}},
    {"id": "apps.git", "type": "app", "displayName": "Git again", "winget": {"packageId": "Git.Git"}}
  ]
}`

	_, err := NewLoader().Parse([]byte(doc))
	if err == nil {
		t.Fatal("Expected error for duplicate item id")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Expected duplicate in error, got %v", err)
	}
}

func TestParse_TypeBlockMismatch(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{
			name: "app without winget block",
			doc: `{"version": "1.0", "items": [
				{"id": "apps.git", "type": "app", "displayName": "Git"}]}`,
		},
		{
			name: "script without script block",
			doc: `{"version": "1.0", "items": [
				{"id": "tweaks.x", "type": "script", "displayName": "X"}]}`,
		},
		{
			name: "app with script block",
			doc: `{"version": "1.0", "items": [
				{"id": "apps.git", "type": "app", "displayName": "Git",
				 "winget": {"packageId": "Git.Git"}, "script": {"path": "x.ps1"}}]}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewLoader().Parse([]byte(tc.doc)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestParse_BadID(t *testing.T) {
	doc := `{"version": "1.0", "items": [
		{"id": "nocategory", "type": "app", "displayName": "X", "winget": {"packageId": "X"}}]}`

	_, err := NewLoader().Parse([]byte(doc))
	if err == nil {
		t.Fatal("Expected error for id without category")
	}
}

func TestParse_MissingVersion(t *testing.T) {
	doc := `{"items": [
		{"id": "apps.git", "type": "app", "displayName": "Git", "winget": {"packageId": "Git.Git"}}]}`

	if _, err := NewLoader().Parse([]byte(doc)); err == nil {
		t.Fatal("Expected validation error for missing version")
	}
}

func TestParse_InvalidScope(t *testing.T) {
	doc := `{"version": "1.0", "items": [
		{"id": "apps.git", "type": "app", "displayName": "Git",
		 "winget": {"packageId": "Git.Git", "scope": "global"}}]}`

	if _, err := NewLoader().Parse([]byte(doc)); err == nil {
		t.Fatal("Expected validation error for invalid scope")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(testCatalogJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("Expected 3 items, got %d", len(items))
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.yaml")
	profileYAML := `name: dev
select:
  - apps.git
  - tweaks.taskbar
priorities:
  tweaks.taskbar: 5
overrides:
  apps.git: /SILENT
scriptParameters:
  tweaks.taskbar:
    Mode: wide
`
	if err := os.WriteFile(path, []byte(profileYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	profile, err := NewLoader().LoadProfile(path)
	if err != nil {
		t.Fatalf("Failed to load profile: %v", err)
	}

	if profile.Name != "dev" {
		t.Errorf("Expected profile name dev, got %q", profile.Name)
	}
	if len(profile.Select) != 2 {
		t.Errorf("Expected 2 selected items, got %v", profile.Select)
	}
	if profile.Priorities["tweaks.taskbar"] != 5 {
		t.Errorf("Expected priority override, got %v", profile.Priorities)
	}
}

func TestLoadProfile_MissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anon.yaml")
	if err := os.WriteFile(path, []byte("select: [apps.git]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader().LoadProfile(path); err == nil {
		t.Fatal("Expected validation error for missing name")
	}
}

func TestApplyProfile(t *testing.T) {
	items, err := NewLoader().Parse([]byte(testCatalogJSON))
	if err != nil {
		t.Fatal(err)
	}
	profile := &Profile{
		Name:       "dev",
		Priorities: map[string]int{"tweaks.taskbar": 5},
		Overrides:  map[string]string{"apps.git": "/SILENT"},
		ScriptParameters: map[string]map[string]string{
			"tweaks.taskbar": {"Mode": "wide", "Align": "left"},
		},
	}

	applied := ApplyProfile(items, profile)

	// The priority override moves the script to the front.
	if applied[0].ID != "tweaks.taskbar" {
		t.Errorf("Expected tweaks.taskbar first after priority override, got %v", itemIDs(applied))
	}

	taskbar := findItem(t, applied, "tweaks.taskbar")
	if taskbar.EffectivePriority != 5 {
		t.Errorf("Expected priority 5, got %d", taskbar.EffectivePriority)
	}
	if taskbar.Script.Parameters["Mode"] != "wide" || taskbar.Script.Parameters["Align"] != "left" {
		t.Errorf("Expected merged script parameters, got %v", taskbar.Script.Parameters)
	}

	git := findItem(t, applied, "apps.git")
	if git.Winget.Override == nil || *git.Winget.Override != "/SILENT" {
		t.Errorf("Expected override replaced, got %v", git.Winget.Override)
	}

	// The source items are untouched.
	originalGit := findItem(t, items, "apps.git")
	if *originalGit.Winget.Override != "/VERYSILENT" {
		t.Errorf("Expected original override preserved, got %q", *originalGit.Winget.Override)
	}
	originalTaskbar := findItem(t, items, "tweaks.taskbar")
	if originalTaskbar.EffectivePriority != 90 {
		t.Errorf("Expected original priority preserved, got %d", originalTaskbar.EffectivePriority)
	}
	if originalTaskbar.Script.Parameters["Mode"] != "compact" {
		t.Errorf("Expected original parameters preserved, got %v", originalTaskbar.Script.Parameters)
	}
}

func TestApplyProfile_UnknownIDsIgnored(t *testing.T) {
	items, err := NewLoader().Parse([]byte(testCatalogJSON))
	if err != nil {
		t.Fatal(err)
	}
	profile := &Profile{
		Name:       "dev",
		Priorities: map[string]int{"apps.nope": 1},
		Overrides:  map[string]string{"tweaks.taskbar": "/X"},
	}

	applied := ApplyProfile(items, profile)

	if len(applied) != len(items) {
		t.Errorf("Expected item count unchanged, got %d", len(applied))
	}
	// An override for a script item is ignored; overrides apply to apps only.
	taskbar := findItem(t, applied, "tweaks.taskbar")
	if taskbar.Winget != nil {
		t.Error("Expected no winget block conjured onto a script item")
	}
}
