package customfields

import (
	"gestionale/internal/models"

	"gorm.io/gorm"
)

// DefinitionSource provides the field definitions a validation pass works
// against. An explicit interface keeps the validator free of ORM details.
type DefinitionSource interface {
	// ActiveDefinitions returns the active, non-deleted definitions for an
	// entity, in display order.
	ActiveDefinitions(entity string) ([]models.CustomFieldDefinition, error)

	// SensitiveKeys returns the subset of keys flagged is_sensitive on any
	// active definition. Used by audit masking.
	SensitiveKeys(keys []string) (map[string]bool, error)
}

// GormSource reads definitions from the database.
type GormSource struct {
	DB *gorm.DB
}

func (s GormSource) ActiveDefinitions(entity string) ([]models.CustomFieldDefinition, error) {
	var defs []models.CustomFieldDefinition
	err := s.DB.
		Where("entity = ? AND is_active = ?", entity, true).
		Order("sort_order, label, key").
		Find(&defs).Error
	return defs, err
}

func (s GormSource) SensitiveKeys(keys []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(keys) == 0 {
		return out, nil
	}
	var found []string
	err := s.DB.Model(&models.CustomFieldDefinition{}).
		Where("is_sensitive = ? AND key IN ?", true, keys).
		Pluck("key", &found).Error
	if err != nil {
		return nil, err
	}
	for _, k := range found {
		out[k] = true
	}
	return out, nil
}

// DefinitionMaps indexes definitions by canonical key and by every
// accepted spelling (key + aliases, normalized).
type DefinitionMaps struct {
	Keys       []string
	DefsByKey  map[string]models.CustomFieldDefinition
	AliasToKey map[string]string
}

// BuildMaps loads and indexes the active definitions for an entity.
func BuildMaps(src DefinitionSource, entity string) (*DefinitionMaps, error) {
	defs, err := src.ActiveDefinitions(entity)
	if err != nil {
		return nil, err
	}

	m := &DefinitionMaps{
		DefsByKey:  make(map[string]models.CustomFieldDefinition, len(defs)),
		AliasToKey: make(map[string]string),
	}
	for _, d := range defs {
		m.Keys = append(m.Keys, d.Key)
		m.DefsByKey[d.Key] = d
		m.AliasToKey[NormalizeKey(d.Key)] = d.Key
		for _, a := range d.Aliases {
			m.AliasToKey[NormalizeKey(a)] = d.Key
		}
	}
	return m, nil
}
