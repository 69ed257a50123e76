// Package audit builds masked before/after diffs and appends them to the
// audit trail. The trail is append-only: events are never updated or
// deleted.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"gestionale/internal/models"
)

// Masked is the placeholder stored in place of sensitive values.
const Masked = "••••"

// maxReprLen caps display labels stored in events.
const maxReprLen = 255

// Broad by intent: better to mask too much than too little.
var sensitiveFieldRe = regexp.MustCompile(`(?i)(password|pwd|secret|token|api[_-]?key|passphrase|private[_-]?key)`)

// SensitiveKeyLookup answers which of the given keys are flagged
// is_sensitive on a custom-field definition. Wired at startup; nil means
// regex masking only.
type SensitiveKeyLookup func(keys []string) map[string]bool

var sensitiveLookup SensitiveKeyLookup

// SetSensitiveKeyLookup installs the custom-field sensitivity source.
func SetSensitiveKeyLookup(fn SensitiveKeyLookup) { sensitiveLookup = fn }

// IsSensitiveField reports whether a field name matches the sensitive
// keyword pattern.
func IsSensitiveField(name string) bool {
	return sensitiveFieldRe.MatchString(name)
}

// MaskValue returns the placeholder when the value looks set; empty values
// stay readable as empty.
func MaskValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return v
		}
	case []any:
		if len(t) == 0 {
			return v
		}
	case map[string]any:
		if len(t) == 0 {
			return v
		}
	}
	return Masked
}

// Ref is the JSON-safe form of a related-entity reference.
type Ref struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// ToPrimitive reduces a value to JSON-safe primitives: scalars pass,
// times become ISO strings, entity references become {id, label},
// collections map recursively, everything else stringifies.
func ToPrimitive(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(time.RFC3339)
	case models.Auditable:
		return Ref{ID: t.GetID(), Label: truncate(t.DisplayLabel(), 80)}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = ToPrimitive(val)
		}
		return out
	case models.JSONMap:
		return ToPrimitive(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = ToPrimitive(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	case models.StringList:
		return ToPrimitive([]string(t))
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *int:
		if t == nil {
			return nil
		}
		return *t
	case *uint:
		if t == nil {
			return nil
		}
		return *t
	}
	return fmt.Sprint(v)
}

// ToChangeValue converts and masks a value for storage in a diff. Nested
// keys are checked against the keyword pattern and against custom-field
// definitions flagged is_sensitive.
func ToChangeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return maskMap(t)
	case models.JSONMap:
		return maskMap(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = ToChangeValue(val)
		}
		return out
	}
	return ToPrimitive(v)
}

func maskMap(m map[string]any) map[string]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	var sensitiveCustom map[string]bool
	if sensitiveLookup != nil {
		sensitiveCustom = sensitiveLookup(keys)
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if IsSensitiveField(k) || sensitiveCustom[k] {
			out[k] = MaskValue(ToPrimitive(v))
		} else {
			out[k] = ToChangeValue(v)
		}
	}
	return out
}

// ToChangeValueForField masks at the top level by field name, then walks
// nested values.
func ToChangeValueForField(field string, v any) any {
	if IsSensitiveField(field) {
		return MaskValue(ToPrimitive(v))
	}
	return ToChangeValue(v)
}

// BuildChanges produces {field: {from, to}} for every field whose
// JSON-primitive representation differs between the two views.
func BuildChanges(before, after map[string]any) models.JSONMap {
	changes := make(models.JSONMap)
	seen := make(map[string]bool, len(before)+len(after))
	for k := range before {
		seen[k] = true
	}
	for k := range after {
		seen[k] = true
	}
	for k := range seen {
		b, a := before[k], after[k]
		if primitiveEqual(ToPrimitive(b), ToPrimitive(a)) {
			continue
		}
		changes[k] = map[string]any{
			"from": ToChangeValueForField(k, b),
			"to":   ToChangeValueForField(k, a),
		}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

// primitiveEqual compares via canonical JSON so int64(10) and float64(10)
// read back from the DB do not produce spurious diffs.
func primitiveEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	return bytes.Equal(ab, bb)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
