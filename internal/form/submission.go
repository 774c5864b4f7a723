package form

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TWRT/issue-bridge/internal/models"
)

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldTags        = "tags"

	codeFence   = "```"
	quoteMarker = "{quote}"
	dateLayout  = "2006-01-02"
)

var dateInputLayouts = []string{dateLayout, "01/02/2006", "01/02/06"}

var ErrNotBound = errors.New("form has no submitted data")

// Initial holds the values a fresh form is pre-populated with.
type Initial struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

// SubmissionForm is one request's issue form: the fixed title, description
// and tags fields plus the mapped dynamic fields. A form is built per
// request and never shared.
type SubmissionForm struct {
	fields  []MappedField
	initial Initial

	data  url.Values
	bound bool

	validated   bool
	title       string
	description string
	tags        string
	cleaned     map[string][]string
}

func NewSubmissionForm(fields []MappedField, initial Initial) *SubmissionForm {
	return &SubmissionForm{
		fields:  fields,
		initial: initial,
	}
}

func (f *SubmissionForm) Fields() []MappedField { return f.fields }

func (f *SubmissionForm) Initial() Initial { return f.initial }

// Bind attaches submitted data and resets any previous validation.
func (f *SubmissionForm) Bind(data url.Values) {
	f.data = data
	f.bound = true
	f.validated = false
	f.cleaned = nil
}

// Validate cleans every field. It returns Issues when any field is invalid.
func (f *SubmissionForm) Validate() error {
	if !f.bound {
		return ErrNotBound
	}

	var iss Issues
	f.cleaned = make(map[string][]string, len(f.fields))

	f.title = strings.TrimSpace(f.data.Get(FieldTitle))
	if f.title == "" {
		iss = append(iss, requiredIssue(FieldTitle))
	}

	f.description = strings.TrimSpace(f.data.Get(FieldDescription))
	if f.description == "" {
		iss = append(iss, requiredIssue(FieldDescription))
	}
	f.description = strings.ReplaceAll(f.description, codeFence, quoteMarker)

	f.tags = f.data.Get(FieldTags)

	for _, field := range f.fields {
		values, issue := cleanField(field, f.data[field.Key])
		if issue != nil {
			iss = append(iss, *issue)
			continue
		}
		if len(values) > 0 {
			f.cleaned[field.Key] = values
		}
	}

	if len(iss) > 0 {
		return iss
	}
	f.validated = true
	return nil
}

func (f *SubmissionForm) Title() string       { return f.title }
func (f *SubmissionForm) Description() string { return f.description }

// Values returns the non-empty cleaned dynamic values in field order, keyed
// by the tracker's field name. Empty fields are omitted.
func (f *SubmissionForm) Values() []models.FieldValue {
	if !f.validated {
		return nil
	}
	values := make([]models.FieldValue, 0, len(f.cleaned))
	for _, field := range f.fields {
		v, ok := f.cleaned[field.Key]
		if !ok {
			continue
		}
		values = append(values, models.FieldValue{
			Name:   field.SourceName,
			Kind:   field.Kind,
			Values: v,
		})
	}
	return values
}

// Tags returns the comma-separated tags, trimmed, in order, without empty
// entries. Duplicates are kept.
func (f *SubmissionForm) Tags() []string {
	return SplitTags(f.tags)
}

func SplitTags(text string) []string {
	var tags []string
	for _, part := range strings.Split(text, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func cleanField(field MappedField, raw []string) ([]string, *Issue) {
	if field.Kind == models.FieldKindMultiChoice {
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if !field.HasChoice(v) {
				return nil, invalidChoice(field.Key, v)
			}
			out = append(out, v)
		}
		return out, nil
	}

	var v string
	if len(raw) > 0 {
		v = strings.TrimSpace(raw[0])
	}
	if v == "" {
		if field.Required {
			issue := requiredIssue(field.Key)
			return nil, &issue
		}
		return nil, nil
	}

	switch field.Kind {
	case models.FieldKindInteger:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &Issue{Field: field.Key, Code: CodeInvalidType, Message: "Enter a whole number."}
		}
		return []string{strconv.Itoa(n)}, nil
	case models.FieldKindNumeric:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, &Issue{Field: field.Key, Code: CodeInvalidType, Message: "Enter a number."}
		}
		return []string{strconv.FormatFloat(n, 'f', -1, 64)}, nil
	case models.FieldKindDate:
		d, err := parseDate(v)
		if err != nil {
			return nil, &Issue{Field: field.Key, Code: CodeInvalidFormat, Message: "Enter a valid date."}
		}
		return []string{d.Format(dateLayout)}, nil
	case models.FieldKindSingleChoice:
		if !field.HasChoice(v) {
			return nil, invalidChoice(field.Key, v)
		}
		return []string{v}, nil
	default:
		return []string{v}, nil
	}
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateInputLayouts {
		if d, err := time.Parse(layout, v); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q", v)
}

func requiredIssue(field string) Issue {
	return Issue{Field: field, Code: CodeRequired, Message: "This field is required."}
}

func invalidChoice(field, v string) *Issue {
	return &Issue{
		Field:   field,
		Code:    CodeInvalidEnum,
		Message: fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", v),
	}
}
