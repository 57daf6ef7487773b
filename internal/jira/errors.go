package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrPaginationInconsistent marks a search page that claimed more results but
// carried no usable continuation token.
var ErrPaginationInconsistent = errors.New("search page is not last but has no usable page token")

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	// Messages holds errorMessages and field errors parsed from the body.
	Messages []string
}

func (e *APIError) Error() string {
	detail := strings.Join(e.Messages, "; ")
	if detail == "" {
		detail = strings.TrimSpace(e.Body)
	}
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("jira API returned %d for %s %s: %s", e.StatusCode, e.Method, e.Path, detail)
}

// IsUnauthorized reports a 401 response.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsUnauthorized reports whether err wraps a 401 APIError.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

// parseErrorMessages extracts Jira's {"errorMessages":[], "errors":{}} body.
// Bodies that are not JSON yield no messages.
func parseErrorMessages(body []byte) []string {
	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	msgs := append([]string{}, payload.ErrorMessages...)
	fields := make([]string, 0, len(payload.Errors))
	for field := range payload.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, payload.Errors[field]))
	}
	return msgs
}
