// Package errors defines the domain error taxonomy for the assignment
// pipeline. Validation and referential integrity failures abort a run before
// any persisted write; rule evaluation failures are per-client and never
// fatal to a batch.
package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// ValidationError indicates missing required columns or fields in source
// data. Fatal; the run aborts before any write.
type ValidationError struct {
	Source  string
	Columns []string
	Message string
}

func NewValidationError(source, msg string) *ValidationError {
	return &ValidationError{Source: source, Message: msg}
}

// NewMissingColumnsError reports required columns absent from a dataset.
func NewMissingColumnsError(source string, columns []string) *ValidationError {
	return &ValidationError{
		Source:  source,
		Columns: columns,
		Message: fmt.Sprintf("missing required columns: %s", strings.Join(columns, ", ")),
	}
}

func (e *ValidationError) Error() string {
	if e.Source == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *ValidationError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusUnprocessableEntity, e.Error()).
		AddMetaValue("source", e.Source)
}

func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// RuleEvaluationError is raised inside one rule for one client. The engine
// logs it, skips the rule for that client, and continues with the remaining
// rules.
type RuleEvaluationError struct {
	Rule     string
	ClientID string
	Err      error
}

func NewRuleEvaluationError(rule, clientID string, err error) *RuleEvaluationError {
	return &RuleEvaluationError{Rule: rule, ClientID: clientID, Err: err}
}

func (e *RuleEvaluationError) Error() string {
	return fmt.Sprintf("rule '%s' failed for client '%s': %v", e.Rule, e.ClientID, e.Err)
}

func (e *RuleEvaluationError) Unwrap() error {
	return e.Err
}

func IsRuleEvaluationError(err error) bool {
	_, ok := err.(*RuleEvaluationError)
	return ok
}

// ReferentialIntegrityError hard-fails a run when the strict validation path
// finds orphaned references. Distinct from the conflict detector, which
// reports the same conditions non-fatally on committed data.
type ReferentialIntegrityError struct {
	Table   string
	Keys    []string
	Message string
}

func NewReferentialIntegrityError(table string, keys []string) *ReferentialIntegrityError {
	return &ReferentialIntegrityError{
		Table:   table,
		Keys:    keys,
		Message: fmt.Sprintf("%d orphaned reference(s) in %s", len(keys), table),
	}
}

func (e *ReferentialIntegrityError) Error() string {
	if len(e.Keys) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Keys, ", "))
}

func (e *ReferentialIntegrityError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, e.Error()).
		AddMetaValue("table", e.Table)
}

func IsReferentialIntegrityError(err error) bool {
	_, ok := err.(*ReferentialIntegrityError)
	return ok
}
