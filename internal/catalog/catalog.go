// Package catalog holds the static filter catalog and validates filter
// parameters at submission time.
package catalog

import (
	"fmt"
	"math"
)

// Filter is one catalog entry.
type Filter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// Categories groups the catalog for the /api/filters response. Lists are
// ordered for stable presentation.
type Categories struct {
	Best       []Filter `json:"best"`
	Quality    []Filter `json:"quality"`
	Atmosphere []Filter `json:"atmosphere"`
	Brightness []Filter `json:"brightness"`
	Sky        []Filter `json:"sky"`
}

var quality = []Filter{
	{ID: "hdr_pro", Name: "HDR Pro", Desc: "Multi-scale detail enhancement for mixed lighting"},
	{ID: "luxury", Name: "Luxury Estate", Desc: "High-end aesthetic for premium properties"},
	{ID: "modern_minimal", Name: "Modern Minimal", Desc: "Clean contemporary look"},
	{ID: "balanced_pro", Name: "Balanced Pro", Desc: "Versatile all-purpose enhancement"},
	{ID: "magazine_editorial", Name: "Magazine Editorial", Desc: "High-end editorial quality"},
	{ID: "architectural", Name: "Architectural", Desc: "Sharp detailed architectural style"},
}

var atmosphere = []Filter{
	{ID: "golden_hour", Name: "Golden Hour", Desc: "Warm sunset glow for exteriors"},
	{ID: "natural_warmth", Name: "Natural Warmth", Desc: "Inviting warmth for living spaces"},
	{ID: "cinematic", Name: "Cinematic", Desc: "Movie-like teal and orange grading"},
	{ID: "moody_dramatic", Name: "Moody Dramatic", Desc: "Dark dramatic atmosphere"},
	{ID: "twilight_magic", Name: "Twilight Magic", Desc: "Blue hour evening effect"},
}

var brightness = []Filter{
	{ID: "crisp_clean", Name: "Crisp & Clean", Desc: "Ultra-sharp bright look for kitchens and baths"},
	{ID: "bright_airy", Name: "Bright & Airy", Desc: "Light open feel for small spaces"},
	{ID: "fresh_bright", Name: "Fresh & Bright", Desc: "Fresh energetic look for new listings"},
	{ID: "vibrant_pop", Name: "Vibrant Pop", Desc: "Bold eye-catching colors"},
	{ID: "soft_elegance", Name: "Soft Elegance", Desc: "Soft sophisticated look for interiors"},
}

var sky = []Filter{
	{ID: "sky_dramatic", Name: "Dramatic Sky", Desc: "Deepen and saturate the existing sky"},
	{ID: "sky_blue", Name: "Blue Sky", Desc: "Replace sky with a clear blue gradient"},
	{ID: "sky_sunset", Name: "Sunset Sky", Desc: "Replace sky with a sunset gradient"},
	{ID: "warm_sunset", Name: "Warm Sunset Combo", Desc: "Sunset sky plus warm tone"},
}

// best holds curated picks, one per category. Each resolves to a canonical
// filter via aliases.
var best = []Filter{
	{ID: "best_quality", Name: "Best Quality", Desc: "Recommended all-purpose enhancement"},
	{ID: "best_atmosphere", Name: "Best Atmosphere", Desc: "Recommended warm ambiance"},
	{ID: "best_bright", Name: "Best Brightness", Desc: "Recommended bright open look"},
	{ID: "best_sky", Name: "Best Sky", Desc: "Recommended sky treatment"},
}

var aliases = map[string]string{
	"best_quality":    "balanced_pro",
	"best_atmosphere": "golden_hour",
	"best_bright":     "bright_airy",
	"best_sky":        "warm_sunset",
}

var known = buildIndex()

func buildIndex() map[string]Filter {
	idx := make(map[string]Filter)
	for _, group := range [][]Filter{best, quality, atmosphere, brightness, sky} {
		for _, f := range group {
			idx[f.ID] = f
		}
	}
	return idx
}

// All returns the categorized catalog.
func All() Categories {
	return Categories{
		Best:       best,
		Quality:    quality,
		Atmosphere: atmosphere,
		Brightness: brightness,
		Sky:        sky,
	}
}

// Resolve maps a submitted filter id to its canonical id, following the
// best_* aliases.
func Resolve(id string) (string, bool) {
	if target, ok := aliases[id]; ok {
		id = target
	}
	_, ok := known[id]
	return id, ok
}

// Validate checks a filter/intensity pair against the catalog and the
// accepted range [0, max]. It returns the canonical filter id.
func Validate(id string, intensity, max float64) (string, error) {
	canonical, ok := Resolve(id)
	if !ok {
		return "", fmt.Errorf("unknown filter %q", id)
	}
	if math.IsNaN(intensity) || intensity < 0 || intensity > max {
		return "", fmt.Errorf("intensity %g out of range [0, %g]", intensity, max)
	}
	return canonical, nil
}
