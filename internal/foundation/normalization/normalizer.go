package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer maps free-form config strings onto a typed enum.
type Normalizer[T comparable] struct {
	name         string
	validValues  map[string]T
	defaultValue T
	validKeys    []string
}

// NewNormalizer creates a normalizer for the named enum. Keys are matched
// case-insensitively with surrounding whitespace ignored.
func NewNormalizer[T comparable](name string, values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))
	for k, v := range values {
		key := clean(k)
		normalized[key] = v
		validKeys = append(validKeys, key)
	}
	sort.Strings(validKeys)

	return &Normalizer[T]{
		name:         name,
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    validKeys,
	}
}

// Normalize returns the enum value for raw, or the default when raw is empty or unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, ok := n.validValues[clean(raw)]; ok {
		return value
	}
	return n.defaultValue
}

// NormalizeWithError is like Normalize but rejects unknown non-empty input.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if strings.TrimSpace(raw) == "" {
		return n.defaultValue, nil
	}
	if value, ok := n.validValues[clean(raw)]; ok {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %v", n.name, raw, n.validKeys)
}

// ValidKeys returns all valid normalized keys.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
