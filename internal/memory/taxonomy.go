package memory

import "strings"

// The fixed category taxonomy. Categories are never created or deleted at
// runtime; each carries a default base importance and a per-day decay rate
// copied onto records at creation time.

// FallbackCategory absorbs everything Normalize cannot place.
const FallbackCategory = "Notes & Miscellaneous"

const (
	fallbackImportance = 70
	fallbackDecayRate  = 0.95
)

var categories = []string{
	"Boss Profile",
	"Personality & Traits",
	"Goals & Aspirations",
	"Habits & Routines",
	"Skills & Expertise",
	"Friends & Contacts",
	"Family Members",
	"Business Associates",
	"Active Projects",
	"Business Ideas & Ventures",
	"Food & Drink Preferences",
	"Technology & Tools",
	"Entertainment Preferences",
	"Work Style & Environment",
	"Communication Style",
	"Travel & Places",
	"Key Dates & Milestones",
	"Decisions & Commitments",
	"Pending Action Items",
	"Notes & Miscellaneous",
}

var defaultImportance = map[string]float64{
	"Boss Profile":              100,
	"Personality & Traits":      90,
	"Goals & Aspirations":       95,
	"Habits & Routines":         85,
	"Skills & Expertise":        80,
	"Friends & Contacts":        75,
	"Family Members":            85,
	"Business Associates":       70,
	"Active Projects":           90,
	"Business Ideas & Ventures": 80,
	"Food & Drink Preferences":  60,
	"Technology & Tools":        65,
	"Entertainment Preferences": 55,
	"Work Style & Environment":  80,
	"Communication Style":       75,
	"Travel & Places":           60,
	"Key Dates & Milestones":    85,
	"Decisions & Commitments":   80,
	"Pending Action Items":      95,
	"Notes & Miscellaneous":     50,
}

var defaultDecayRate = map[string]float64{
	"Boss Profile":              0.98,
	"Personality & Traits":      0.97,
	"Goals & Aspirations":       0.96,
	"Habits & Routines":         0.95,
	"Skills & Expertise":        0.97,
	"Friends & Contacts":        0.95,
	"Family Members":            0.98,
	"Business Associates":       0.94,
	"Active Projects":           0.93,
	"Business Ideas & Ventures": 0.90,
	"Food & Drink Preferences":  0.94,
	"Technology & Tools":        0.92,
	"Entertainment Preferences": 0.90,
	"Work Style & Environment":  0.96,
	"Communication Style":       0.96,
	"Travel & Places":           0.94,
	"Key Dates & Milestones":    0.92,
	"Decisions & Commitments":   0.93,
	"Pending Action Items":      0.91,
	"Notes & Miscellaneous":     0.88,
}

// Categories returns the full taxonomy in declaration order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsKnownCategory reports whether name is an exact taxonomy member.
func IsKnownCategory(name string) bool {
	_, ok := defaultImportance[name]
	return ok
}

// Normalize maps an arbitrary caller-supplied category string to the closest
// known category: case-insensitive substring match, first hit in declaration
// order wins. Empty input and misses fall back to FallbackCategory.
//
// The matcher is deliberately loose and order-dependent ("project" lands on
// "Active Projects", never "Business Ideas & Ventures"). Callers rely on the
// tolerance; do not tighten it to strict equality.
func Normalize(input string) string {
	if input == "" {
		return FallbackCategory
	}
	needle := strings.ToLower(input)
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c), needle) {
			return c
		}
	}
	return FallbackCategory
}

// DefaultImportance returns the base importance for a category name, falling
// back when the name is not an exact taxonomy member.
func DefaultImportance(name string) float64 {
	if v, ok := defaultImportance[name]; ok {
		return v
	}
	return fallbackImportance
}

// DefaultDecayRate returns the per-day retention factor for a category name,
// falling back when the name is not an exact taxonomy member.
func DefaultDecayRate(name string) float64 {
	if v, ok := defaultDecayRate[name]; ok {
		return v
	}
	return fallbackDecayRate
}
