package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/winforge/winforge/pkg/engine"
)

// Loader parses and validates catalog files.
type Loader struct {
	validator *validator.Validate
}

// NewLoader creates a catalog loader.
func NewLoader() *Loader {
	return &Loader{
		validator: validator.New(),
	}
}

// Load reads a catalog file and returns its items with priorities
// resolved, sorted by (effectivePriority, category, displayName, id).
func (l *Loader) Load(path string) ([]engine.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return l.Parse(data)
}

// Parse validates raw catalog JSON and resolves it into engine items.
func (l *Loader) Parse(data []byte) ([]engine.Item, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := l.validator.Struct(doc); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}

	seen := make(map[string]bool, len(doc.Items))
	items := make([]engine.Item, 0, len(doc.Items))
	for i := range doc.Items {
		item, err := l.resolveItem(&doc, &doc.Items[i])
		if err != nil {
			return nil, err
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("duplicate catalog item id %q", item.ID)
		}
		seen[item.ID] = true
		items = append(items, item)
	}

	sortItems(items)
	return items, nil
}

// resolveItem converts one raw entry into an engine item, checking that
// the type tag matches the configuration block present.
func (l *Loader) resolveItem(doc *Document, cfg *ItemConfig) (engine.Item, error) {
	category, _, ok := strings.Cut(cfg.ID, ".")
	if !ok || category == "" {
		return engine.Item{}, fmt.Errorf("item id %q is not in category.name form", cfg.ID)
	}

	priority := doc.DefaultPriority
	if cfg.Priority != nil {
		priority = *cfg.Priority
	}

	item := engine.Item{
		ID:                cfg.ID,
		Category:          category,
		DisplayName:       cfg.DisplayName,
		EffectivePriority: priority,
	}

	switch engine.ItemType(cfg.Type) {
	case engine.ItemTypeApp:
		if cfg.Winget == nil {
			return engine.Item{}, fmt.Errorf("app item %q has no winget block", cfg.ID)
		}
		if cfg.Script != nil {
			return engine.Item{}, fmt.Errorf("app item %q must not have a script block", cfg.ID)
		}
		item.Type = engine.ItemTypeApp
		item.Winget = &engine.WingetConfig{
			PackageID: cfg.Winget.PackageID,
			Source:    cfg.Winget.Source,
			Scope:     cfg.Winget.Scope,
			Override:  cloneString(cfg.Winget.Override),
		}

	case engine.ItemTypeScript:
		if cfg.Script == nil {
			return engine.Item{}, fmt.Errorf("script item %q has no script block", cfg.ID)
		}
		if cfg.Winget != nil {
			return engine.Item{}, fmt.Errorf("script item %q must not have a winget block", cfg.ID)
		}
		item.Type = engine.ItemTypeScript
		item.Script = &engine.ScriptConfig{
			Path:            cfg.Script.Path,
			Parameters:      cloneMap(cfg.Script.Parameters),
			RestartExplorer: cfg.Script.RestartExplorer,
		}

	default:
		return engine.Item{}, fmt.Errorf("item %q has unknown type %q", cfg.ID, cfg.Type)
	}

	return item, nil
}

// LoadProfile reads and validates a YAML profile file.
func (l *Loader) LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := l.validator.Struct(profile); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}
	return &profile, nil
}

// ApplyProfile overlays a profile onto catalog items, returning a new
// slice with overridden items cloned. The input items are not mutated;
// the result is re-sorted because priority overrides can reorder it.
// References to unknown item IDs are ignored.
func ApplyProfile(items []engine.Item, profile *Profile) []engine.Item {
	result := make([]engine.Item, len(items))
	copy(result, items)

	for i := range result {
		item := &result[i]

		if priority, ok := profile.Priorities[item.ID]; ok {
			item.EffectivePriority = priority
		}

		if override, ok := profile.Overrides[item.ID]; ok && item.Winget != nil {
			cloned := *item.Winget
			cloned.Override = &override
			item.Winget = &cloned
		}

		if params, ok := profile.ScriptParameters[item.ID]; ok && item.Script != nil {
			cloned := *item.Script
			merged := cloneMap(cloned.Parameters)
			if merged == nil {
				merged = make(map[string]string, len(params))
			}
			for k, v := range params {
				merged[k] = v
			}
			cloned.Parameters = merged
			item.Script = &cloned
		}
	}

	sortItems(result)
	return result
}

// sortItems orders items the same way the planner orders steps, honoring
// the contract that the catalog supplies items pre-sorted by effective
// priority.
func sortItems(items []engine.Item) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.EffectivePriority != b.EffectivePriority {
			return a.EffectivePriority < b.EffectivePriority
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	})
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cloned := make(map[string]string, len(m))
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}
