package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestListPresetsOrdered(t *testing.T) {
	want := []string{"chaos", "figure-eight", "spiral", "butterfly", "flower", "gentle"}
	if diff := cmp.Diff(want, ListPresets()); diff != "" {
		t.Errorf("preset order mismatch (-want +got):\n%s", diff)
	}
}

func TestGetPreset(t *testing.T) {
	p, ok := GetPreset("chaos")
	if !ok {
		t.Fatal("expected preset, got none")
	}
	if p.State.Theta1 != 3.0 {
		t.Errorf("expected theta1 3.0, got %f", p.State.Theta1)
	}

	if _, ok := GetPreset("nonexistent"); ok {
		t.Error("expected no preset for unknown name")
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, p := range Presets() {
		cfg := DefaultConfig()
		if err := cfg.ApplyPreset(p.Name); err != nil {
			t.Fatalf("%s: %v", p.Name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: %v", p.Name, err)
		}
		if p.Description == "" {
			t.Errorf("%s has no description", p.Name)
		}
	}
}

func TestPresetsReturnsCopy(t *testing.T) {
	ps := Presets()
	ps[0].Name = "changed"

	if diff := cmp.Diff("chaos", Presets()[0].Name); diff != "" {
		t.Errorf("Presets leaked internal slice:\n%s", diff)
	}
}
