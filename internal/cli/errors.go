package cli

import (
	"errors"

	"github.com/aidanlsb/ifcq/internal/extract"
	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/lastquery"
	"github.com/aidanlsb/ifcq/internal/query"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Config errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// Model errors
	ErrModelNotFound    = "MODEL_NOT_FOUND"
	ErrModelNotIndexed  = "MODEL_NOT_INDEXED"
	ErrModelAmbiguous   = "MODEL_AMBIGUOUS"
	ErrElementNotFound  = "ELEMENT_NOT_FOUND"
	ErrPropertyNotFound = "PROPERTY_NOT_FOUND"
	ErrDumpInvalid      = "DUMP_INVALID"

	// File errors
	ErrFileNotFound  = "FILE_NOT_FOUND"
	ErrFileReadError = "FILE_READ_ERROR"

	// Database errors
	ErrDatabaseError = "DATABASE_ERROR"
	ErrIndexLocked   = "INDEX_LOCKED"

	// Query errors
	ErrQueryInvalid      = "QUERY_INVALID"
	ErrComparatorInvalid = "COMPARATOR_INVALID"
	ErrTreeInvalid       = "TREE_INVALID"
	ErrNoLastQuery       = "NO_LAST_QUERY"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnElementsSkipped   = "ELEMENTS_SKIPPED"
	WarnPropertiesDropped = "PROPERTIES_DROPPED"
	WarnQueryMalformed    = "QUERY_MALFORMED"
	WarnIndexRebuilt      = "INDEX_REBUILT"
	WarnNotIndexed        = "MODEL_NOT_INDEXED"
)

// errorCode maps package sentinels to CLI error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, index.ErrModelNotFound):
		return ErrModelNotIndexed
	case errors.Is(err, index.ErrIndexLocked):
		return ErrIndexLocked
	case errors.Is(err, query.ErrInvalidComparator):
		return ErrComparatorInvalid
	case errors.Is(err, query.ErrMalformed):
		return ErrQueryInvalid
	case errors.Is(err, extract.ErrInvalidDump):
		return ErrDumpInvalid
	case errors.Is(err, lastquery.ErrNoLastQuery):
		return ErrNoLastQuery
	case errors.Is(err, lastquery.ErrInvalidNumber), errors.Is(err, lastquery.ErrNumberOutOfRange):
		return ErrInvalidInput
	}
	return ErrInternal
}
