package audit

import (
	"testing"
	"time"

	"gestionale/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSensitiveField(t *testing.T) {
	t.Parallel()

	sensitive := []string{"os_pwd", "app_pwd", "vnc_pwd", "password", "Password", "api_key", "api-key", "apikey", "secret_token", "passphrase", "private_key"}
	for _, name := range sensitive {
		assert.True(t, IsSensitiveField(name), name)
	}

	plain := []string{"name", "hostname", "os_user", "notes", "city"}
	for _, name := range plain {
		assert.False(t, IsSensitiveField(name), name)
	}
}

func TestMaskValuePreservesEmpties(t *testing.T) {
	t.Parallel()

	assert.Nil(t, MaskValue(nil))
	assert.Equal(t, "", MaskValue(""))
	assert.Equal(t, Masked, MaskValue("hunter2"))
	assert.Equal(t, Masked, MaskValue(42))
}

func TestBuildChangesMasksBothSides(t *testing.T) {
	t.Parallel()

	changes := BuildChanges(
		map[string]any{"os_pwd": "old-secret", "name": "srv01"},
		map[string]any{"os_pwd": "new-secret", "name": "srv02"},
	)

	require.Contains(t, changes, "os_pwd")
	pwd := changes["os_pwd"].(map[string]any)
	assert.Equal(t, Masked, pwd["from"])
	assert.Equal(t, Masked, pwd["to"])

	name := changes["name"].(map[string]any)
	assert.Equal(t, "srv01", name["from"])
	assert.Equal(t, "srv02", name["to"])
}

func TestBuildChangesSkipsEqualFields(t *testing.T) {
	t.Parallel()

	changes := BuildChanges(
		map[string]any{"name": "same", "notes": "a"},
		map[string]any{"name": "same", "notes": "b"},
	)
	assert.NotContains(t, changes, "name")
	assert.Contains(t, changes, "notes")
}

func TestBuildChangesNumericRoundTrip(t *testing.T) {
	t.Parallel()

	// int64 written, float64 read back from JSON storage: not a change.
	changes := BuildChanges(
		map[string]any{"custom_fields": map[string]any{"dipendenti": int64(10)}},
		map[string]any{"custom_fields": map[string]any{"dipendenti": float64(10)}},
	)
	assert.Empty(t, changes)
}

func TestBuildChangesEmptyDiffIsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, BuildChanges(
		map[string]any{"name": "x"},
		map[string]any{"name": "x"},
	))
}

func TestMaskingWalksNestedMaps(t *testing.T) {
	t.Parallel()

	changes := BuildChanges(
		map[string]any{"custom_fields": map[string]any{"api_key": "old", "citta": "Roma"}},
		map[string]any{"custom_fields": map[string]any{"api_key": "new", "citta": "Bari"}},
	)

	cf := changes["custom_fields"].(map[string]any)
	from := cf["from"].(map[string]any)
	to := cf["to"].(map[string]any)

	assert.Equal(t, Masked, from["api_key"])
	assert.Equal(t, Masked, to["api_key"])
	assert.Equal(t, "Roma", from["citta"])
	assert.Equal(t, "Bari", to["citta"])
}

func TestCustomSensitiveKeyLookup(t *testing.T) {
	SetSensitiveKeyLookup(func(keys []string) map[string]bool {
		return map[string]bool{"codice_allarme": true}
	})
	defer SetSensitiveKeyLookup(nil)

	changes := BuildChanges(
		map[string]any{"custom_fields": map[string]any{"codice_allarme": "1234"}},
		map[string]any{"custom_fields": map[string]any{"codice_allarme": "5678"}},
	)

	cf := changes["custom_fields"].(map[string]any)
	assert.Equal(t, Masked, cf["from"].(map[string]any)["codice_allarme"])
	assert.Equal(t, Masked, cf["to"].(map[string]any)["codice_allarme"])
}

func TestToPrimitive(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-30T12:00:00Z", ToPrimitive(ts))

	cust := &models.Customer{Name: "ACME"}
	cust.ID = 7
	ref, ok := ToPrimitive(cust).(Ref)
	require.True(t, ok)
	assert.Equal(t, uint(7), ref.ID)
	assert.Equal(t, "ACME", ref.Label)

	assert.Equal(t, []any{"a", "b"}, ToPrimitive(models.StringList{"a", "b"}))
	assert.Nil(t, ToPrimitive((*time.Time)(nil)))
}
