package models

import (
	"fmt"
	"net/url"
	"strconv"
)

// EditorStep is the wizard stage opened right after a product is created.
const EditorStep = 2

type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SubmissionResult is the outcome of one create attempt.
type SubmissionResult struct {
	ID     string       `json:"id,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

func (r SubmissionResult) Succeeded() bool {
	return r.ID != "" && len(r.Errors) == 0
}

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}

type RouteQuery struct {
	ID   string `json:"id"`
	Step int    `json:"step"`
}

// Route describes a client-side navigation that replaces the current entry.
type Route struct {
	Pathname string     `json:"pathname"`
	Query    RouteQuery `json:"query"`
	As       string     `json:"as"`
	Replace  bool       `json:"replace"`
}

// EditorRoute points at the editor of a freshly created product.
func EditorRoute(id string, step int) Route {
	query := url.Values{}
	query.Set("step", strconv.Itoa(step))
	return Route{
		Pathname: "/[id]/editor",
		Query:    RouteQuery{ID: id, Step: step},
		As:       fmt.Sprintf("/%s/editor?%s", url.PathEscape(id), query.Encode()),
		Replace:  true,
	}
}
