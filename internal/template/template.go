// Package template fills {{ name }} placeholders in prompt bodies.
package template

import (
	"maps"
	"regexp"
	"strings"
)

// A placeholder name is any text on one line between the braces, without
// its surrounding whitespace.
var placeholder = regexp.MustCompile(`\{\{([^{}\n]+)\}\}`)

func nameOf(inner string) string {
	return strings.TrimSpace(inner)
}

// Resolve substitutes every placeholder that has a value. Placeholders with
// no value are left verbatim.
func Resolve(body string, values map[string]string) string {
	return placeholder.ReplaceAllStringFunc(body, func(match string) string {
		name := nameOf(placeholder.FindStringSubmatch(match)[1])
		if value, ok := values[name]; ok && name != "" {
			return value
		}
		return match
	})
}

// Variables lists the distinct placeholder names in body, in first-seen order.
func Variables(body string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, match := range placeholder.FindAllStringSubmatch(body, -1) {
		if name := nameOf(match[1]); name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// ResolveStep resolves a workflow step: the step's overrides win over values.
func ResolveStep(body string, values, overrides map[string]string) string {
	merged := make(map[string]string, len(values)+len(overrides))
	maps.Copy(merged, values)
	maps.Copy(merged, overrides)
	return Resolve(body, merged)
}

// Missing returns the variables of body that values does not cover.
func Missing(body string, values map[string]string) []string {
	var missing []string
	for _, name := range Variables(body) {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// ParseAssignments turns ["k=v", ...] into a value map. Entries without "="
// map the whole entry to an empty string.
func ParseAssignments(pairs []string) map[string]string {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		if key = strings.TrimSpace(key); key != "" {
			values[key] = value
		}
	}
	return values
}
