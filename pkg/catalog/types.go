// Package catalog loads the application/script catalog from JSON and
// applies profile overlays. The loader resolves effective priorities and
// returns items sorted by them, so the engine never re-resolves ordering
// inputs. Profile overrides clone items; a loaded catalog is never
// mutated.
package catalog

// Document is the raw JSON shape of a catalog file.
type Document struct {
	// Version is the catalog schema version.
	Version string `json:"version" validate:"required"`

	// DefaultPriority applies to items without an explicit priority.
	DefaultPriority int `json:"defaultPriority"`

	// Items are the selectable catalog entries.
	Items []ItemConfig `json:"items" validate:"required,dive"`
}

// ItemConfig is the raw JSON shape of one catalog entry.
type ItemConfig struct {
	// ID is the unique item identifier in "category.name" form.
	ID string `json:"id" validate:"required"`

	// Type is the item kind: app or script.
	Type string `json:"type" validate:"required,oneof=app script"`

	// DisplayName is the human-readable name.
	DisplayName string `json:"displayName" validate:"required"`

	// Priority orders execution (lower first); nil uses the catalog
	// default.
	Priority *int `json:"priority"`

	// Winget is the package configuration, required for app items.
	Winget *WingetBlock `json:"winget"`

	// Script is the script configuration, required for script items.
	Script *ScriptBlock `json:"script"`
}

// WingetBlock is the raw package-manager configuration.
type WingetBlock struct {
	// PackageID is the package identifier.
	PackageID string `json:"packageId" validate:"required"`

	// Source is the package source.
	Source string `json:"source"`

	// Scope is the install scope.
	Scope string `json:"scope" validate:"omitempty,oneof=user machine"`

	// Override is an optional raw installer argument string.
	Override *string `json:"override"`
}

// ScriptBlock is the raw script configuration.
type ScriptBlock struct {
	// Path is the script path relative to the script root.
	Path string `json:"path" validate:"required"`

	// Parameters maps parameter names to values.
	Parameters map[string]string `json:"parameters"`

	// RestartExplorer flags that a successful run wants a shell restart.
	RestartExplorer bool `json:"restartExplorer"`
}

// Profile is a named selection with optional per-item overrides, loaded
// from YAML. Overrides are applied upstream of plan building and produce
// cloned items.
type Profile struct {
	// Name identifies the profile.
	Name string `yaml:"name" validate:"required"`

	// Select lists the item IDs this profile provisions.
	Select []string `yaml:"select"`

	// Priorities overrides effective priorities per item ID.
	Priorities map[string]int `yaml:"priorities"`

	// Overrides replaces the winget override string per app item ID.
	Overrides map[string]string `yaml:"overrides"`

	// ScriptParameters merges extra parameters into script items by ID.
	ScriptParameters map[string]map[string]string `yaml:"scriptParameters"`
}
