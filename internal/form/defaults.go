package form

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

const maxDefaultLength = 255

// FieldKey is the stable identity under which a field's saved default is
// stored. Equal names always yield equal keys.
func FieldKey(fieldName string) string {
	sum := sha256.Sum256([]byte(fieldName))
	return hex.EncodeToString(sum[:])
}

// Defaults maps FieldKey(name) to the last value saved as default.
type Defaults map[string]string

func (d Defaults) Lookup(fieldName string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d[FieldKey(fieldName)]
	return v, ok
}

// Set stores value as the default for fieldName.
func (d Defaults) Set(fieldName, value string) {
	d[FieldKey(fieldName)] = value
}

// ValidateDefault checks a "save as default" request.
func ValidateDefault(field, value string) (string, string, error) {
	field = strings.TrimSpace(field)
	value = strings.TrimSpace(value)

	var iss Issues
	for _, in := range []struct{ name, v string }{{"field", field}, {"value", value}} {
		switch {
		case in.v == "":
			iss = append(iss, Issue{Field: in.name, Code: CodeRequired, Message: "This field is required."})
		case utf8.RuneCountInString(in.v) > maxDefaultLength:
			iss = append(iss, Issue{Field: in.name, Code: CodeTooLong, Message: "Ensure this value has at most 255 characters."})
		}
	}
	if len(iss) > 0 {
		return "", "", iss
	}
	return field, value, nil
}
