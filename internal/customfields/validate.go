package customfields

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gestionale/internal/models"
)

// Validation messages (Italian, matching the UI).
const (
	msgInvalidNumber  = "Numero non valido."
	msgInvalidBoolean = "Valore boolean non valido."
	msgInvalidDate    = "Data non valida (atteso YYYY-MM-DD)."
	msgNotAllowed     = "Valore non ammesso."
	msgRequired       = "Campo obbligatorio."
)

// NormalizeAndValidate canonicalizes aliases and validates values against
// the definitions for entity.
//
//   - Unknown keys (no definition) pass through verbatim.
//   - Known keys are rewritten to their canonical spelling.
//   - Required fields are enforced on the merged state for partial updates.
//   - Empty values of non-required known fields are dropped after
//     validation; false and 0 survive, only nil and blank strings go.
//
// Field errors are collected per field and returned together; the error
// return is reserved for infrastructure failures (definition load).
func NormalizeAndValidate(src DefinitionSource, entity string, incoming, existing map[string]any, partial bool) (models.JSONMap, map[string]string, error) {
	if incoming == nil {
		// Not provided at all: nothing to validate, keep what is stored.
		if partial && len(existing) > 0 {
			return models.JSONMap(existing), nil, nil
		}
		return nil, nil, nil
	}

	maps, err := BuildMaps(src, entity)
	if err != nil {
		return nil, nil, err
	}

	normalized := make(map[string]any)
	if partial {
		for k, v := range existing {
			normalized[k] = v
		}
	}

	// Canonicalize incoming keys; unknown spellings stay verbatim.
	for rawKey, rawVal := range incoming {
		if canonical, ok := maps.AliasToKey[NormalizeKey(rawKey)]; ok {
			normalized[canonical] = rawVal
		} else {
			normalized[rawKey] = rawVal
		}
	}

	fieldErrors := make(map[string]string)

	for _, key := range maps.Keys {
		d := maps.DefsByKey[key]
		val := normalized[key]

		var coerced any
		switch d.FieldType {
		case models.FieldText:
			coerced = coerceText(val)

		case models.FieldNumber:
			coerced = coerceNumber(val)
			if !isEmpty(val) && coerced == nil {
				fieldErrors[key] = msgInvalidNumber
			}

		case models.FieldBoolean:
			coerced = coerceBool(val)
			if !isEmpty(val) && coerced == nil {
				fieldErrors[key] = msgInvalidBoolean
			}

		case models.FieldDate:
			coerced = coerceDate(val)
			if !isEmpty(val) && coerced == nil {
				fieldErrors[key] = msgInvalidDate
			}

		case models.FieldSelect:
			if isEmpty(val) {
				coerced = nil
			} else {
				s := stringify(val)
				coerced = s
				if len(d.Options) > 0 && !contains(d.Options, s) {
					fieldErrors[key] = msgNotAllowed
				}
			}

		default:
			coerced = val
		}

		normalized[key] = coerced

		if d.Required && isBlank(coerced) {
			fieldErrors[key] = msgRequired
		}
	}

	if len(fieldErrors) > 0 {
		return nil, fieldErrors, nil
	}

	// Keep storage compact: drop empty optional known fields.
	for _, key := range maps.Keys {
		if d := maps.DefsByKey[key]; !d.Required && isBlank(normalized[key]) {
			delete(normalized, key)
		}
	}

	if len(normalized) == 0 {
		return nil, nil, nil
	}
	return models.JSONMap(normalized), nil, nil
}

func isEmpty(v any) bool {
	return v == nil || v == ""
}

// isBlank reports nil or a blank string. false and 0 are NOT blank.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func coerceText(v any) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return s
	}
	return stringify(v)
}

// coerceNumber accepts JSON numbers and numeric strings (comma decimal
// separator allowed); integral values reduce to int64. Returns nil when
// the input is empty or unparsable.
func coerceNumber(v any) any {
	if isEmpty(v) {
		return nil
	}
	switch t := v.(type) {
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(t)
	case int64:
		return t
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	}
	return nil
}

func coerceBool(v any) any {
	if isEmpty(v) {
		return nil
	}
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return nil
}

// coerceDate accepts ISO YYYY-MM-DD only (the UI always sends this).
func coerceDate(v any) any {
	if isEmpty(v) {
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		return t.Format("2006-01-02")
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil
		}
		return s
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
