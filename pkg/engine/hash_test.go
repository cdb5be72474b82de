package engine

import (
	"regexp"
	"testing"
)

var hashShape = regexp.MustCompile(`^[0-9a-f]{12}$`)

func stepsFor(ids ...string) []Step {
	steps := make([]Step, len(ids))
	for i, id := range ids {
		steps[i] = Step{ID: id, Type: ItemTypeApp}
	}
	return steps
}

func TestComputeHash_Stable(t *testing.T) {
	a := ComputeHash(stepsFor("a", "b"))
	b := ComputeHash(stepsFor("a", "b"))

	if a != b {
		t.Errorf("Expected identical hashes for identical input, got %s and %s", a, b)
	}
}

func TestComputeHash_OrderSensitive(t *testing.T) {
	ab := ComputeHash(stepsFor("a", "b"))
	ba := ComputeHash(stepsFor("b", "a"))

	if ab == ba {
		t.Errorf("Expected different hashes for reordered input, both %s", ab)
	}
}

func TestComputeHash_MembershipSensitive(t *testing.T) {
	ab := ComputeHash(stepsFor("a", "b"))
	cd := ComputeHash(stepsFor("c", "d"))

	if ab == cd {
		t.Errorf("Expected different hashes for different members, both %s", ab)
	}
}

func TestComputeHash_Shape(t *testing.T) {
	for _, steps := range [][]Step{
		stepsFor(),
		stepsFor("a"),
		stepsFor("apps.git", "tweaks.taskbar", "apps.vscode"),
	} {
		hash := ComputeHash(steps)
		if !hashShape.MatchString(hash) {
			t.Errorf("Expected 12 lowercase hex characters, got %q", hash)
		}
	}
}

func TestComputeHash_IgnoresEverythingButIDs(t *testing.T) {
	override := "/SILENT"
	withParams := []Step{
		{ID: "a", Type: ItemTypeApp, Parameters: StepParameters{Override: &override}},
		{ID: "b", Type: ItemTypeScript, Parameters: StepParameters{Script: map[string]string{"k": "v"}}},
	}

	if got, want := ComputeHash(withParams), ComputeHash(stepsFor("a", "b")); got != want {
		t.Errorf("Expected hash to depend only on step ids, got %s and %s", got, want)
	}
}
