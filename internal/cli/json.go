package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// jsonOutput is set by --json. In JSON mode every command writes exactly one
// Response to stdout, failures included.
var jsonOutput bool

// Response is the --json envelope.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

// ErrorInfo is the error member of a failed Response. Code is one of the
// Err* constants.
type ErrorInfo struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Warning is a non-fatal problem, usually tied to one model.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

func modelWarning(code, modelID, format string, args ...interface{}) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...), Model: modelID}
}

// Meta describes the data of a Response: how many items it holds and, for
// queries, how long evaluation took.
type Meta struct {
	Count       int   `json:"count,omitempty"`
	QueryTimeMs int64 `json:"query_time_ms,omitempty"`
}

func counted(n int) *Meta {
	return &Meta{Count: n}
}

func writeResponse(w io.Writer, resp Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func outputSuccess(data interface{}, meta *Meta) {
	outputSuccessWithWarnings(data, nil, meta)
}

func outputSuccessWithWarnings(data interface{}, warnings []Warning, meta *Meta) {
	_ = writeResponse(os.Stdout, Response{OK: true, Data: data, Warnings: warnings, Meta: meta})
}

func outputError(code, message string, details interface{}, suggestion string) {
	_ = writeResponse(os.Stdout, Response{Error: &ErrorInfo{
		Code:       code,
		Message:    message,
		Details:    details,
		Suggestion: suggestion,
	}})
}

// reportError is the single exit for command failures. In JSON mode it writes
// the error envelope and returns nil so cobra prints nothing more. In text
// mode it returns err with the details and suggestion appended.
func reportError(code string, err error, suggestion string, details []string) error {
	if jsonOutput {
		var d interface{}
		if len(details) > 0 {
			d = details
		}
		outputError(code, err.Error(), d, suggestion)
		return nil
	}
	var extra []string
	for _, line := range details {
		extra = append(extra, "  "+line)
	}
	if suggestion != "" {
		extra = append(extra, "", suggestion)
	}
	if len(extra) == 0 {
		return err
	}
	return fmt.Errorf("%w\n%s", err, strings.Join(extra, "\n"))
}

func handleError(code string, err error, suggestion string) error {
	return reportError(code, err, suggestion, nil)
}

func handleErrorMsg(code, message, suggestion string) error {
	return reportError(code, errors.New(message), suggestion, nil)
}

// handleErrorWithDetails reports an error with a list of related items, such
// as the candidate models of an ambiguous selection.
func handleErrorWithDetails(code, message, suggestion string, details []string) error {
	return reportError(code, errors.New(message), suggestion, details)
}
