package models

type Project struct {
	ShortName string `json:"shortname"`
	Name      string `json:"name"`
}

type User struct {
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type NewIssue struct {
	Project     string
	Summary     string
	Description string
}

type CreatedIssue struct {
	ID string
}

type IssueSummary struct {
	ID      string `json:"id"`
	State   string `json:"state"`
	Summary string `json:"summary"`
}
