package youtrack

import "github.com/goccy/go-json"

type YouTrackError struct {
	Err         string `json:"error"`
	Description string `json:"error_description"`
}

type YouTrackProject struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	Name      string `json:"name"`
}

type YouTrackUser struct {
	Login    string `json:"login"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type YouTrackFieldType struct {
	ID string `json:"id"`
}

type YouTrackCustomField struct {
	Name      string            `json:"name"`
	FieldType YouTrackFieldType `json:"fieldType"`
}

type YouTrackBundleValue struct {
	Name string `json:"name"`
}

type YouTrackBundle struct {
	Values []YouTrackBundleValue `json:"values"`
}

type YouTrackProjectCustomField struct {
	Field  YouTrackCustomField `json:"field"`
	Bundle *YouTrackBundle     `json:"bundle"`
}

type YouTrackIssueFieldValue struct {
	Name string `json:"name"`
}

// Value is kept raw: its shape depends on the field type (object, array,
// number or null).
type YouTrackIssueCustomField struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type YouTrackIssue struct {
	ID           string                     `json:"id"`
	IdReadable   string                     `json:"idReadable"`
	Summary      string                     `json:"summary"`
	CustomFields []YouTrackIssueCustomField `json:"customFields"`
}

type ProjectRef struct {
	ID string `json:"id"`
}

type CreateIssueRequest struct {
	Project     ProjectRef `json:"project"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
}

type IssueRef struct {
	IdReadable string `json:"idReadable"`
}

type CommandRequest struct {
	Query  string     `json:"query"`
	Issues []IssueRef `json:"issues"`
}
