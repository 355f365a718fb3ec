package catalog

import (
	"math"
	"strings"
	"testing"
)

func TestAll_CategoriesPopulated(t *testing.T) {
	cats := All()

	groups := map[string][]Filter{
		"best":       cats.Best,
		"quality":    cats.Quality,
		"atmosphere": cats.Atmosphere,
		"brightness": cats.Brightness,
		"sky":        cats.Sky,
	}
	for name, group := range groups {
		if len(group) == 0 {
			t.Errorf("category %s is empty", name)
		}
		for _, f := range group {
			if f.ID == "" || f.Name == "" || f.Desc == "" {
				t.Errorf("category %s has incomplete entry %+v", name, f)
			}
		}
	}
}

func TestAll_UniqueIDs(t *testing.T) {
	cats := All()
	seen := map[string]bool{}
	for _, group := range [][]Filter{cats.Best, cats.Quality, cats.Atmosphere, cats.Brightness, cats.Sky} {
		for _, f := range group {
			if seen[f.ID] {
				t.Errorf("duplicate filter id %s", f.ID)
			}
			seen[f.ID] = true
		}
	}
	if len(seen) != 24 {
		t.Errorf("expected 24 filter ids, got %d", len(seen))
	}
}

func TestResolve_Aliases(t *testing.T) {
	cases := map[string]string{
		"best_quality":    "balanced_pro",
		"best_atmosphere": "golden_hour",
		"best_bright":     "bright_airy",
		"best_sky":        "warm_sunset",
		"luxury":          "luxury",
	}
	for id, want := range cases {
		got, ok := Resolve(id)
		if !ok {
			t.Errorf("Resolve(%s) reported unknown", id)
			continue
		}
		if got != want {
			t.Errorf("Resolve(%s) = %s, want %s", id, got, want)
		}
	}

	if _, ok := Resolve("nonexistent"); ok {
		t.Error("Resolve accepted an unknown filter")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		intensity float64
		wantErr   string
	}{
		{"valid", "luxury", 1.0, ""},
		{"alias", "best_quality", 1.0, ""},
		{"zero intensity", "luxury", 0, ""},
		{"max intensity", "luxury", 3.0, ""},
		{"unknown filter", "nonexistent", 1.0, "unknown filter"},
		{"negative intensity", "luxury", -0.1, "out of range"},
		{"too strong", "luxury", 3.1, "out of range"},
		{"nan intensity", "luxury", math.NaN(), "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.id, tt.intensity, 3.0)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
