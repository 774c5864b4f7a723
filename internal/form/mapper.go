// Package form turns a tracker's custom field schema into a typed,
// validated submission form.
package form

import (
	"strconv"
	"strings"

	"github.com/TWRT/issue-bridge/internal/models"
)

const (
	fieldKeyPrefix   = "field_"
	multiValueMarker = "[*]"
	blankChoiceLabel = "— choose —"
)

// primitiveKinds take precedence over any enumerated values a field carries.
var primitiveKinds = map[string]models.FieldKind{
	"float":   models.FieldKindNumeric,
	"integer": models.FieldKindInteger,
	"date":    models.FieldKindDate,
	"string":  models.FieldKindText,
}

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// MappedField is the typed form representation of one schema entry.
// Choices is set only for choice kinds.
type MappedField struct {
	Key        string           `json:"key"`
	SourceName string           `json:"source_name"`
	Label      string           `json:"label"`
	Kind       models.FieldKind `json:"kind"`
	Choices    []Choice         `json:"choices,omitempty"`
	Required   bool             `json:"required"`
	Initial    *string          `json:"initial,omitempty"`
}

// HasChoice reports whether v is one of the field's choice values.
func (f MappedField) HasChoice(v string) bool {
	for _, c := range f.Choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

// Kind derives the form kind of a schema entry. ok is false when the field
// has neither a known primitive type nor enumerated values.
func Kind(schema models.FieldSchema) (kind models.FieldKind, ok bool) {
	if k, found := primitiveKinds[schema.Type]; found {
		return k, true
	}
	if len(schema.Values) == 0 {
		return "", false
	}
	if strings.Contains(schema.Type, multiValueMarker) {
		return models.FieldKindMultiChoice, true
	}
	return models.FieldKindSingleChoice, true
}

// MapField maps one schema entry. The returned field has no Key; keys are
// assigned by MapSchema.
func MapField(schema models.FieldSchema, defaults Defaults) (MappedField, bool) {
	kind, ok := Kind(schema)
	if !ok {
		return MappedField{}, false
	}

	field := MappedField{
		SourceName: schema.Name,
		Label:      schema.Name,
		Kind:       kind,
	}

	switch kind {
	case models.FieldKindSingleChoice:
		field.Choices = make([]Choice, 0, len(schema.Values)+1)
		field.Choices = append(field.Choices, Choice{Value: "", Label: blankChoiceLabel})
		field.Choices = append(field.Choices, choicesOf(schema.Values)...)
	case models.FieldKindMultiChoice:
		field.Choices = choicesOf(schema.Values)
	}

	if v, found := defaults.Lookup(schema.Name); found {
		field.Initial = &v
	}
	return field, true
}

// MapSchema maps every representable entry, preserving input order. Keys
// run field_1..field_n over the mapped fields only, so skipped entries leave
// no gaps.
func MapSchema(schema []models.FieldSchema, defaults Defaults) []MappedField {
	fields := make([]MappedField, 0, len(schema))
	for _, s := range schema {
		field, ok := MapField(s, defaults)
		if !ok {
			continue
		}
		field.Key = fieldKeyPrefix + strconv.Itoa(len(fields)+1)
		fields = append(fields, field)
	}
	return fields
}

func choicesOf(values []string) []Choice {
	choices := make([]Choice, len(values))
	for i, v := range values {
		choices[i] = Choice{Value: v, Label: v}
	}
	return choices
}
