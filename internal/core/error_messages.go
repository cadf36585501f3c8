package core

// error_messages.go maps technical errors to coded user messages.
//
// Codes are quoted by users when reporting a problem, so they must stay
// stable once released:
//
//	DB001  duplicate product key          "duplicate key", "violates unique"
//	DB002  database unreachable           "connection refused", "connection reset", "dial tcp"
//	DB003  database timeout               "timeout"
//	DB004  conflicting operations         "deadlock"
//	DB005  ambiguous write                ErrNoRowsAffected
//	VAL001 invalid number                 "invalid preco", "invalid sloja", ...
//	VAL002 missing column                 "missing required column"
//	VAL003 invalid product                ValidationError, InvalidValue
//	VAL004 request body rejected          "invalid request body"
//	SRC001 spreadsheet unavailable        ErrSourceUnavailable
//	SRC002 unsupported file               "unsupported file"
//	SRC003 file too large                 "file too large"
//	SRC004 file unchanged                 ErrUnchanged
//	RUN001 too many runs                  ErrTooManyRuns
//	RUN002 request cancelled              "context canceled"
//	RUN003 request timed out              "context deadline exceeded"
//	RATE01 rate limited                   "rate limit"
//	ERR000 anything else
//
// Typed errors are matched with errors.Is/As first. Everything else falls
// back to case-insensitive substring matching, first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var (
	msgDuplicate = UserMessage{
		Message: "A product with this code already exists in this store",
		Action:  "Use the sync endpoint to update existing products",
		Code:    "DB001",
	}
	msgDBDown = UserMessage{
		Message: "Unable to reach the product database",
		Action:  "Please try again in a few moments",
		Code:    "DB002",
	}
	msgDBTimeout = UserMessage{
		Message: "The database took too long to respond",
		Action:  "Please try again later",
		Code:    "DB003",
	}
	msgDeadlock = UserMessage{
		Message: "The database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB004",
	}
	msgNoRows = UserMessage{
		Message: "The database accepted the write but changed nothing",
		Action:  "Check that the product still exists and try again",
		Code:    "DB005",
	}
	msgInvalidNumber = UserMessage{
		Message: "A numeric column holds a value that is not a number",
		Action:  "Use plain numbers for stock and price columns",
		Code:    "VAL001",
	}
	msgMissingColumn = UserMessage{
		Message: "A required column is missing from the spreadsheet",
		Action:  "Check the header row against the expected columns",
		Code:    "VAL002",
	}
	msgInvalidProduct = UserMessage{
		Message: "The product data is invalid",
		Action:  "Code and store are required and quantities cannot be negative",
		Code:    "VAL003",
	}
	msgBadBody = UserMessage{
		Message: "The request body does not describe a product",
		Action:  "Check the field names and types and try again",
		Code:    "VAL004",
	}
	msgSource = UserMessage{
		Message: "The spreadsheet could not be read",
		Action:  "Check the drive folder and file permissions",
		Code:    "SRC001",
	}
	msgUnsupported = UserMessage{
		Message: "Unsupported file type",
		Action:  "Upload an .xlsx or .csv file",
		Code:    "SRC002",
	}
	msgTooLarge = UserMessage{
		Message: "The file exceeds the maximum size",
		Action:  "Split the spreadsheet into smaller files",
		Code:    "SRC003",
	}
	msgUnchanged = UserMessage{
		Message: "The spreadsheet has not changed since the last sync",
		Action:  "No action needed",
		Code:    "SRC004",
	}
	msgRemoteDisabled = UserMessage{
		Message: "Drive sync is not configured",
		Action:  "Set DRIVE_CREDENTIALS_FILE and DRIVE_FOLDER_ID",
		Code:    "SRC005",
	}
	msgBusy = UserMessage{
		Message: "Another sync is already running",
		Action:  "Please wait a moment and try again",
		Code:    "RUN001",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "RUN002",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller spreadsheet or try again later",
		Code:    "RUN003",
	}
	msgRate = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE01",
	}
)

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered: specific patterns precede general ones.
var errorPatterns = []errorPattern{
	{"duplicate key", msgDuplicate},
	{"violates unique", msgDuplicate},
	{"connection refused", msgDBDown},
	{"connection reset", msgDBDown},
	{"dial tcp", msgDBDown},
	{"deadlock", msgDeadlock},
	{"no rows affected", msgNoRows},
	{"missing required column", msgMissingColumn},
	{"invalid request body", msgBadBody},
	{"unsupported file", msgUnsupported},
	{"file too large", msgTooLarge},
	{"too many concurrent runs", msgBusy},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
	{"rate limit", msgRate},
	{"timeout", msgDBTimeout},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(fmt.Errorf("insert: %w", pgErr))
//	// msg.Code == "DB001" for a unique violation
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var extractErr *ExtractionError
	var validationErr ValidationError
	switch {
	case errors.Is(err, ErrTooManyRuns):
		return msgBusy
	case errors.Is(err, ErrUnchanged):
		return msgUnchanged
	case errors.Is(err, ErrRemoteDisabled):
		return msgRemoteDisabled
	case errors.Is(err, ErrSourceUnavailable):
		return msgSource
	case errors.Is(err, ErrNoRowsAffected):
		return msgNoRows
	case errors.As(err, &extractErr):
		switch extractErr.Kind {
		case MissingField:
			return msgMissingColumn
		case TypeCoercionFailure:
			return msgInvalidNumber
		default:
			return msgInvalidProduct
		}
	case errors.As(err, &validationErr):
		return msgInvalidProduct
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
