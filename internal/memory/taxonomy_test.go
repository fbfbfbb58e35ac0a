package memory

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"exact_match", "Active Projects", "Active Projects"},
		{"case_insensitive", "active projects", "Active Projects"},
		{"substring", "project", "Active Projects"},
		{"substring_uppercase", "FOOD", "Food & Drink Preferences"},
		{"partial_word", "milestone", "Key Dates & Milestones"},
		{"empty_input", "", FallbackCategory},
		{"no_match", "quantum chromodynamics", FallbackCategory},
		{"fallback_itself", "misc", FallbackCategory},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_FirstMatchWins(t *testing.T) {
	t.Parallel()
	// "business" appears in both "Business Associates" and "Business Ideas &
	// Ventures"; declaration order decides.
	if got := Normalize("business"); got != "Business Associates" {
		t.Errorf("Normalize(\"business\") = %q, want first declared match", got)
	}
}

func TestCategoriesCompleteDefaults(t *testing.T) {
	t.Parallel()
	cats := Categories()
	if len(cats) != 20 {
		t.Fatalf("expected 20 categories, got %d", len(cats))
	}
	for _, c := range cats {
		if !IsKnownCategory(c) {
			t.Errorf("category %q missing from defaults", c)
		}
		imp := DefaultImportance(c)
		if imp < 0 || imp > 100 {
			t.Errorf("category %q base importance %v out of range", c, imp)
		}
		rate := DefaultDecayRate(c)
		if rate <= 0 || rate >= 1 {
			t.Errorf("category %q decay rate %v out of (0,1)", c, rate)
		}
	}
}

func TestDefaultsFallbackForUnknownName(t *testing.T) {
	t.Parallel()
	if got := DefaultImportance("nope"); got != fallbackImportance {
		t.Errorf("DefaultImportance fallback = %v, want %v", got, fallbackImportance)
	}
	if got := DefaultDecayRate("nope"); got != fallbackDecayRate {
		t.Errorf("DefaultDecayRate fallback = %v, want %v", got, fallbackDecayRate)
	}
}
