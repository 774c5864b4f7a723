package models

// FieldSchema is one custom field as the tracker declares it for a project.
// Type is the tracker's type id, e.g. "integer", "enum[1]" or "enum[*]".
type FieldSchema struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Values []string `json:"values"`
}

// FieldValue is one cleaned, non-empty dynamic field value ready to be
// replayed against the tracker. Scalars are carried as a single element.
type FieldValue struct {
	Name   string    `json:"name"`
	Kind   FieldKind `json:"kind"`
	Values []string  `json:"values"`
}

type FieldKind string

const (
	FieldKindNumeric      FieldKind = "numeric"
	FieldKindInteger      FieldKind = "integer"
	FieldKindDate         FieldKind = "date"
	FieldKindText         FieldKind = "text"
	FieldKindSingleChoice FieldKind = "single_choice"
	FieldKindMultiChoice  FieldKind = "multi_choice"
)
