package engine

import (
	"os"
	"runtime"
	"sort"
	"time"
)

// BuildPlan builds a deterministic execution plan from the selected catalog
// items. Duplicate and unknown IDs in the selection are ignored; an empty
// selection yields a plan with zero steps, not an error.
//
// Items must arrive with priorities resolved and profile overrides already
// applied; the planner never re-resolves either. Surviving items are
// ordered by (effectivePriority asc, category asc, displayName asc) with a
// final lexical tie-break on ID, so identical inputs always produce an
// identical step sequence. That determinism is what keeps the plan hash
// stable across rebuilds.
func BuildPlan(allItems []Item, selectedIDs []string) *Plan {
	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	picked := make([]Item, 0, len(selected))
	for _, item := range allItems {
		if selected[item.ID] {
			picked = append(picked, item)
		}
	}

	sort.Slice(picked, func(i, j int) bool {
		a, b := picked[i], picked[j]
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

	steps := make([]Step, 0, len(picked))
	for _, item := range picked {
		steps = append(steps, Step{
			ID:         item.ID,
			Type:       item.Type,
			Parameters: snapshotParameters(item),
		})
	}

	return &Plan{
		PlanVersion: PlanVersion,
		GeneratedAt: time.Now(),
		Environment: CollectEnvironment(),
		Steps:       steps,
	}
}

// snapshotParameters captures the type-relevant item parameters into the
// step, cloned so later catalog mutations cannot leak into the plan.
func snapshotParameters(item Item) StepParameters {
	var params StepParameters

	switch item.Type {
	case ItemTypeApp:
		if item.Winget != nil && item.Winget.Override != nil {
			override := *item.Winget.Override
			params.Override = &override
		}
	case ItemTypeScript:
		merged := make(map[string]string)
		if item.Script != nil {
			for k, v := range item.Script.Parameters {
				merged[k] = v
			}
		}
		params.Script = merged
	}

	return params
}

// CollectEnvironment snapshots the current host for the plan's
// informational environment block.
func CollectEnvironment() Environment {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	osVersion := os.Getenv("OS")
	if osVersion == "" {
		osVersion = runtime.GOOS
	}

	return Environment{
		ComputerName: hostname,
		OSVersion:    osVersion,
	}
}
