// Package foundation holds small generic helpers shared by configuration code.
package foundation

import (
	"strings"
)

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer maps case-insensitive user input onto a typed enum.
type Normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
}

// NewNormalizer creates a normalizer from spelling->value pairs; aliases are allowed.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[normalizeKey(k)] = v
	}
	return &Normalizer[T]{validValues: normalized, defaultValue: defaultValue}
}

// Normalize returns the value for raw, or the default if it is not recognized.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, ok := n.validValues[normalizeKey(raw)]; ok {
		return value
	}
	return n.defaultValue
}

// Valid reports whether raw is a recognized spelling.
func (n *Normalizer[T]) Valid(raw string) bool {
	_, ok := n.validValues[normalizeKey(raw)]
	return ok
}
