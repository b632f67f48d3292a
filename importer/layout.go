package importer

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// fixedTrailingTokens is id, date, time and meridiem.
	fixedTrailingTokens  = 4
	MaxTrailingConstants = 7
	defaultPrefixTokens  = 2
)

// Layout is one historical arrangement of whitespace-delimited fields in a punch log.
type Layout struct {
	Name              string
	PrefixPresent     bool
	PrefixTokens      int
	TrailingConstants int
	Encodings         []string
}

// DefaultLayouts returns the layouts observed across exports of the fingerprint terminals.
// Order matters for automatic selection: ties go to the earlier layout.
func DefaultLayouts() []Layout {
	encodings := DefaultEncodings()
	return []Layout{
		{Name: "company", PrefixPresent: true, PrefixTokens: 2, TrailingConstants: 1, Encodings: encodings},
		{Name: "company-fp", PrefixPresent: true, PrefixTokens: 2, TrailingConstants: 2, Encodings: encodings},
		{Name: "plain", TrailingConstants: 0, Encodings: encodings},
		{Name: "terminal", TrailingConstants: 1, Encodings: encodings},
		{Name: "terminal-full", TrailingConstants: 7, Encodings: encodings},
	}
}

func (l Layout) prefixCount() int {
	if !l.PrefixPresent {
		return 0
	}
	if l.PrefixTokens <= 0 {
		return defaultPrefixTokens
	}
	return l.PrefixTokens
}

func (l Layout) trailingCount() int {
	return fixedTrailingTokens + l.TrailingConstants
}

// MinTokens is the smallest token count a line needs: prefix, one name token and the tail block.
func (l Layout) MinTokens() int {
	return l.prefixCount() + 1 + l.trailingCount()
}

func (l Layout) encodings() []string {
	if len(l.Encodings) == 0 {
		return DefaultEncodings()
	}
	return l.Encodings
}

func (l Layout) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("layout name is required")
	}
	if l.PrefixPresent && (l.PrefixTokens < 0 || l.PrefixTokens > 2) {
		return fmt.Errorf("layout %q: prefix_tokens must be 1 or 2", l.Name)
	}
	if l.TrailingConstants < 0 || l.TrailingConstants > MaxTrailingConstants {
		return fmt.Errorf("layout %q: trailing_constants must be between 0 and %d", l.Name, MaxTrailingConstants)
	}
	for _, name := range l.Encodings {
		if _, err := encodingByName(name); err != nil {
			return fmt.Errorf("layout %q: %w", l.Name, err)
		}
	}
	return nil
}

func (l Layout) String() string {
	prefix := "none"
	if l.PrefixPresent {
		prefix = fmt.Sprintf("%d token(s)", l.prefixCount())
	}
	return fmt.Sprintf("%s (prefix: %s, trailing constants: %d, encodings: %s)",
		l.Name, prefix, l.TrailingConstants, strings.Join(l.encodings(), ", "))
}

// LayoutByName finds a layout case-insensitively.
func LayoutByName(name string, layouts []Layout) (Layout, error) {
	key := normalizeName(name)
	idx := slices.IndexFunc(layouts, func(l Layout) bool {
		return normalizeName(l.Name) == key
	})
	if idx < 0 {
		names := make([]string, 0, len(layouts))
		for _, layout := range layouts {
			names = append(names, layout.Name)
		}
		return Layout{}, fmt.Errorf("unsupported layout: %s (supported: %s)", name, strings.Join(names, ", "))
	}
	return layouts[idx], nil
}

func normalizeName(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	trimmed = strings.ReplaceAll(trimmed, "_", "")
	trimmed = strings.ReplaceAll(trimmed, "-", "")
	trimmed = strings.ReplaceAll(trimmed, " ", "")
	return trimmed
}
