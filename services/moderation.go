package services

import (
	"strings"
)

// Moderator applies the platform's content rules to uploads and broadcasts.
type Moderator struct {
	keywords   []string
	categories map[string]string
	ordered    []string
}

// NewModerator creates a Moderator from configured keywords and categories.
func NewModerator(keywords, categories []string) *Moderator {
	m := &Moderator{categories: make(map[string]string, len(categories))}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			m.keywords = append(m.keywords, k)
		}
	}
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		m.categories[strings.ToLower(c)] = c
		m.ordered = append(m.ordered, c)
	}
	return m
}

// Categories returns the configured categories in order.
func (m *Moderator) Categories() []string {
	return append([]string(nil), m.ordered...)
}

// NormalizeCategory returns the canonical spelling of category, matching case-insensitively.
func (m *Moderator) NormalizeCategory(category string) (string, bool) {
	c, ok := m.categories[strings.ToLower(strings.TrimSpace(category))]
	return c, ok
}

// IsSpiritual reports whether any configured keyword occurs in the given text.
// With no keywords configured every text passes.
func (m *Moderator) IsSpiritual(texts ...string) bool {
	if len(m.keywords) == 0 {
		return true
	}

	content := strings.ToLower(strings.Join(texts, " "))
	for _, k := range m.keywords {
		if strings.Contains(content, k) {
			return true
		}
	}
	return false
}
