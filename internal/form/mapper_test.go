package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/issue-bridge/internal/models"
)

func TestKind_PrimitiveWinsOverValues(t *testing.T) {
	cases := map[string]models.FieldKind{
		"float":   models.FieldKindNumeric,
		"integer": models.FieldKindInteger,
		"date":    models.FieldKindDate,
		"string":  models.FieldKindText,
	}
	for typ, want := range cases {
		t.Run(typ, func(t *testing.T) {
			kind, ok := Kind(models.FieldSchema{Name: "F", Type: typ, Values: []string{"a", "b"}})
			require.True(t, ok)
			assert.Equal(t, want, kind)

			field, ok := MapField(models.FieldSchema{Name: "F", Type: typ, Values: []string{"a"}}, nil)
			require.True(t, ok)
			assert.Empty(t, field.Choices)
		})
	}
}

func TestMapField_MultiValueMarker(t *testing.T) {
	field, ok := MapField(models.FieldSchema{Name: "Affected versions", Type: "version[*]", Values: []string{"1.0", "2.0"}}, nil)
	require.True(t, ok)

	assert.Equal(t, models.FieldKindMultiChoice, field.Kind)
	assert.Equal(t, []Choice{{"1.0", "1.0"}, {"2.0", "2.0"}}, field.Choices)
}

func TestMapField_SingleChoiceGetsBlankFirst(t *testing.T) {
	field, ok := MapField(models.FieldSchema{Name: "Priority", Type: "enum[1]", Values: []string{"Minor", "Major"}}, nil)
	require.True(t, ok)

	assert.Equal(t, models.FieldKindSingleChoice, field.Kind)
	want := []Choice{{"", blankChoiceLabel}, {"Minor", "Minor"}, {"Major", "Major"}}
	assert.Equal(t, want, field.Choices)
	assert.False(t, field.Required)
}

func TestMapSchema_DropsUnmappableAndPacksKeys(t *testing.T) {
	schema := []models.FieldSchema{
		{Name: "Assignee", Type: "user[1]"},
		{Name: "Severity", Type: "unknown", Values: []string{"Low", "High"}},
		{Name: "Spent time", Type: "period"},
		{Name: "Points", Type: "integer"},
	}

	fields := MapSchema(schema, nil)
	require.Len(t, fields, 2)
	assert.Equal(t, "field_1", fields[0].Key)
	assert.Equal(t, "Severity", fields[0].SourceName)
	assert.Equal(t, "field_2", fields[1].Key)
	assert.Equal(t, "Points", fields[1].SourceName)
}

func TestMapSchema_ExampleScenario(t *testing.T) {
	schema := []models.FieldSchema{
		{Name: "Severity", Type: "unknown", Values: []string{"Low", "High"}},
		{Name: "Points", Type: "integer", Values: []string{}},
	}

	want := []MappedField{
		{
			Key:        "field_1",
			SourceName: "Severity",
			Label:      "Severity",
			Kind:       models.FieldKindSingleChoice,
			Choices:    []Choice{{"", blankChoiceLabel}, {"Low", "Low"}, {"High", "High"}},
		},
		{
			Key:        "field_2",
			SourceName: "Points",
			Label:      "Points",
			Kind:       models.FieldKindInteger,
		},
	}
	if diff := cmp.Diff(want, MapSchema(schema, nil)); diff != "" {
		t.Errorf("MapSchema() mismatch (-want +got):\n%s", diff)
	}
}

func TestMapSchema_UsesSavedDefaults(t *testing.T) {
	defaults := Defaults{}
	defaults.Set("Severity", "High")

	fields := MapSchema([]models.FieldSchema{
		{Name: "Severity", Type: "enum[1]", Values: []string{"Low", "High"}},
		{Name: "Points", Type: "integer"},
	}, defaults)

	require.NotNil(t, fields[0].Initial)
	assert.Equal(t, "High", *fields[0].Initial)
	assert.Nil(t, fields[1].Initial)
}

func TestMapSchema_Empty(t *testing.T) {
	assert.Empty(t, MapSchema(nil, nil))
}
