package config

import "strings"

// Default schema exclusion lists used when generating the setup script.
var (
	DefaultFunctionSchemas = []string{
		"pg_catalog",
		"information_schema",
		"extensions",
		"pgsodium",
		"storage",
		"realtime",
		"vault",
	}
	DefaultTriggerSchemas = []string{
		"pgsodium",
		"storage",
		"realtime",
		"vault",
	}
)

// ExclusionConfig lists the schemas whose functions and triggers get_functions
// and get_triggers must not report. Both lists behave as ordered sets.
type ExclusionConfig struct {
	FunctionSchemas []string `koanf:"exclude_function_schemas"`
	TriggerSchemas  []string `koanf:"exclude_trigger_schemas"`
}

// DefaultExclusions returns a fresh copy of the default exclusion lists.
func DefaultExclusions() ExclusionConfig {
	return ExclusionConfig{
		FunctionSchemas: clone(DefaultFunctionSchemas),
		TriggerSchemas:  clone(DefaultTriggerSchemas),
	}
}

// Normalize returns a copy with entries trimmed, blank entries dropped and
// duplicates removed. The first occurrence of a schema keeps its position.
func (c ExclusionConfig) Normalize() ExclusionConfig {
	return ExclusionConfig{
		FunctionSchemas: uniqueSchemas(c.FunctionSchemas),
		TriggerSchemas:  uniqueSchemas(c.TriggerSchemas),
	}
}

// ResetFunctionSchemas restores the default function schema list.
func (c *ExclusionConfig) ResetFunctionSchemas() {
	c.FunctionSchemas = clone(DefaultFunctionSchemas)
}

// ResetTriggerSchemas restores the default trigger schema list.
func (c *ExclusionConfig) ResetTriggerSchemas() {
	c.TriggerSchemas = clone(DefaultTriggerSchemas)
}

// ParseSchemaList reads a newline-delimited schema list as typed in an editor.
// Windows line endings and surrounding whitespace are tolerated.
func ParseSchemaList(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return uniqueSchemas(strings.Split(text, "\n"))
}

// FormatSchemaList renders a schema list in the newline-delimited editing form.
func FormatSchemaList(schemas []string) string {
	return strings.Join(schemas, "\n")
}

func uniqueSchemas(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
