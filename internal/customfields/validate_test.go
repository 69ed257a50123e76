package customfields

import (
	"testing"

	"gestionale/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource serves definitions from memory so the validator is tested
// without a database.
type stubSource struct {
	defs []models.CustomFieldDefinition
}

func (s stubSource) ActiveDefinitions(entity string) ([]models.CustomFieldDefinition, error) {
	var out []models.CustomFieldDefinition
	for _, d := range s.defs {
		if d.Entity == entity && d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s stubSource) SensitiveKeys(keys []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func customerDefs() stubSource {
	return stubSource{defs: []models.CustomFieldDefinition{
		{Entity: "customer", Key: "citta", Label: "Città", FieldType: models.FieldText, IsActive: true,
			Aliases: models.StringList{"città", "city"}},
		{Entity: "customer", Key: "dipendenti", Label: "Dipendenti", FieldType: models.FieldNumber, IsActive: true},
		{Entity: "customer", Key: "convenzionato", Label: "Convenzionato", FieldType: models.FieldBoolean, IsActive: true},
		{Entity: "customer", Key: "data_contratto", Label: "Data contratto", FieldType: models.FieldDate, IsActive: true},
		{Entity: "customer", Key: "fascia", Label: "Fascia", FieldType: models.FieldSelect, IsActive: true,
			Options: models.StringList{"oro", "argento", "bronzo"}},
		{Entity: "customer", Key: "referente", Label: "Referente", FieldType: models.FieldText, Required: true, IsActive: true},
	}}
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"Città", "citta"},
		{"  CITTÀ  ", "citta"},
		{"città", "citta"},
		{"qualità", "qualita"},
		{"l'azienda", "lazienda"},
		{"plain_key", "plain_key"},
	}
	for _, tc := range tests {
		if got := NormalizeKey(tc.in); got != tc.want {
			t.Fatalf("NormalizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAndValidate_AliasCanonicalization(t *testing.T) {
	t.Parallel()

	got, fieldErrs, err := NormalizeAndValidate(customerDefs(), "customer", map[string]any{
		"Città":     "Milano",
		"referente": "Rossi",
	}, nil, false)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)

	assert.Equal(t, "Milano", got["citta"])
	_, hasRaw := got["Città"]
	assert.False(t, hasRaw, "alias spelling must not survive normalization")
}

func TestNormalizeAndValidate_UnknownKeysPassThrough(t *testing.T) {
	t.Parallel()

	got, fieldErrs, err := NormalizeAndValidate(customerDefs(), "customer", map[string]any{
		"referente": "Rossi",
		"campoX":    "libero",
	}, nil, false)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	assert.Equal(t, "libero", got["campoX"])
}

func TestNormalizeAndValidate_NumberCoercion(t *testing.T) {
	t.Parallel()

	src := customerDefs()

	got, fieldErrs, err := NormalizeAndValidate(src, "customer", map[string]any{
		"referente":  "Rossi",
		"dipendenti": "12,5",
	}, nil, false)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	assert.Equal(t, 12.5, got["dipendenti"])

	got, fieldErrs, err = NormalizeAndValidate(src, "customer", map[string]any{
		"referente":  "Rossi",
		"dipendenti": "10",
	}, nil, false)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	assert.Equal(t, int64(10), got["dipendenti"], "integral strings reduce to int")

	got, fieldErrs, err = NormalizeAndValidate(src, "customer", map[string]any{
		"referente":  "Rossi",
		"dipendenti": float64(10),
	}, nil, false)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	assert.Equal(t, int64(10), got["dipendenti"], "integral floats reduce to int")

	_, fieldErrs, err = NormalizeAndValidate(src, "customer", map[string]any{
		"referente":  "Rossi",
		"dipendenti": "abc",
	}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Numero non valido.", fieldErrs["dipendenti"])
}

func TestNormalizeAndValidate_BooleanCoercion(t *testing.T) {
	t.Parallel()

	src := customerDefs()

	for _, raw := range []any{"1", "true", "YES", "on", true, float64(1)} {
		got, fieldErrs, err := NormalizeAndValidate(src, "customer", map[string]any{
			"referente":     "Rossi",
			"convenzionato": raw,
		}, nil, false)
		require.NoError(t, err)
		require.Empty(t, fieldErrs, "raw %v", raw)
		assert.Equal(t, true, got["convenzionato"], "raw %v", raw)
	}

	_, fieldErrs, err := NormalizeAndValidate(src, "customer", map[string]any{
		"referente":     "Rossi",
		"convenzionato": "boh",
	}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Valore boolean non valido.", fieldErrs["convenzionato"])
}

func TestNormalizeAndValidate_DateAndSelect(t *testing.T) {
	t.Parallel()

	src := customerDefs()

	_, fieldErrs, err := NormalizeAndValidate(src, "customer", map[string]any{
		"referente":      "Rossi",
		"data_contratto": "31/12/2025",
	}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Data non valida (atteso YYYY-MM-DD).", fieldErrs["data_contratto"])

	_, fieldErrs, err = NormalizeAndValidate(src, "customer", map[string]any{
		"referente": "Rossi",
		"fascia":    "platino",
	}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Valore non ammesso.", fieldErrs["fascia"])

	got, fieldErrs, err := NormalizeAndValidate(src, "customer", map[string]any{
		"referente":      "Rossi",
		"data_contratto": "2025-12-31",
		"fascia":         "oro",
	}, nil, false)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	assert.Equal(t, "2025-12-31", got["data_contratto"])
	assert.Equal(t, "oro", got["fascia"])
}

func TestNormalizeAndValidate_Required(t *testing.T) {
	t.Parallel()

	src := customerDefs()

	_, fieldErrs, err := NormalizeAndValidate(src, "customer", map[string]any{}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Campo obbligatorio.", fieldErrs["referente"])

	_, fieldErrs, err = NormalizeAndValidate(src, "customer", map[string]any{"referente": "  "}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Campo obbligatorio.", fieldErrs["referente"])
}

func TestNormalizeAndValidate_PartialKeepsExisting(t *testing.T) {
	t.Parallel()

	existing := map[string]any{"referente": "Rossi", "citta": "Torino"}

	got, fieldErrs, err := NormalizeAndValidate(customerDefs(), "customer", map[string]any{
		"dipendenti": 7,
	}, existing, true)
	require.NoError(t, err)
	require.Empty(t, fieldErrs, "required field satisfied by the stored value")
	assert.Equal(t, "Rossi", got["referente"])
	assert.Equal(t, "Torino", got["citta"])
	assert.Equal(t, int64(7), got["dipendenti"])
}

func TestNormalizeAndValidate_DropsBlankButKeepsFalseAndZero(t *testing.T) {
	t.Parallel()

	got, fieldErrs, err := NormalizeAndValidate(customerDefs(), "customer", map[string]any{
		"referente":     "Rossi",
		"citta":         "",
		"convenzionato": false,
		"dipendenti":    0,
	}, nil, false)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)

	_, hasCity := got["citta"]
	assert.False(t, hasCity, "blank optional value must be dropped")
	assert.Equal(t, false, got["convenzionato"], "false is a value, not an absence")
	assert.Equal(t, int64(0), got["dipendenti"], "zero is a value, not an absence")
}

func TestNormalizeAndValidate_AggregatesAllErrors(t *testing.T) {
	t.Parallel()

	_, fieldErrs, err := NormalizeAndValidate(customerDefs(), "customer", map[string]any{
		"dipendenti":     "abc",
		"convenzionato":  "boh",
		"data_contratto": "ieri",
	}, nil, false)
	require.NoError(t, err)

	assert.Len(t, fieldErrs, 4)
	assert.Contains(t, fieldErrs, "dipendenti")
	assert.Contains(t, fieldErrs, "convenzionato")
	assert.Contains(t, fieldErrs, "data_contratto")
	assert.Contains(t, fieldErrs, "referente")
}

func TestNormalizeAndValidate_NilIncoming(t *testing.T) {
	t.Parallel()

	got, fieldErrs, err := NormalizeAndValidate(customerDefs(), "customer", nil, map[string]any{"citta": "Bari"}, true)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	assert.Equal(t, "Bari", got["citta"], "absent custom_fields keeps the stored bag on partial update")
}
