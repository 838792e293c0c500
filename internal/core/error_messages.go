package core

// error_messages.go maps technical errors to user-facing messages with
// codes for support reference. Users quote the code; support looks it up
// here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds UPLOAD_MAX_FILE_SIZE
//	          Patterns: "file too large"
//	FILE002 - Invalid CSV: no header row could be read
//	          Patterns: "invalid csv"
//	FILE003 - Encoding error: text could not be decoded
//	          Patterns: "encoding error"
//	FILE004 - No file: request carried no file part or body
//	          Patterns: "no file provided"
//	FILE005 - Empty file: body was empty or only whitespace
//	          Patterns: "empty file"
//
// # Cleaning Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid config: an enum field holds an unknown value
//	         Patterns: "invalid cleaning config"
//	CFG002 - Unknown rule: single-rule preview named no known rule
//	         Patterns: "unknown rule"
//	CFG003 - Invalid delimiter: export or parse delimiter is unusable
//	         Patterns: "invalid delimiter"
//	CFG004 - Invalid preset: YAML preset could not be decoded
//	         Patterns: "decode preset"
//	CFG005 - Unknown dedupe option: dedupe mode or keep policy unknown
//	         Patterns: "unknown dedupe"
//
// # Dataset Errors (DATA001-DATA099)
//
//	DATA001 - Duplicate row id       Patterns: "duplicate row id"
//	DATA002 - Unknown column         Patterns: "unknown column"
//	DATA003 - Duplicate column       Patterns: "duplicate column"
//	DATA004 - Invalid row status     Patterns: "invalid status"
//	DATA005 - Too many rows          Patterns: "too many rows"
//	DATA006 - Invalid field value    Patterns: "field value must be"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - System busy: every processing slot is taken
//	         Patterns: "too many concurrent"
//	REQ002 - Request cancelled       Patterns: "context canceled"
//	REQ003 - Request timeout         Patterns: "context deadline exceeded"
//	REQ004 - Malformed body          Patterns: "invalid request body"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests      Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Make sure the first line holds the column headers",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header and data rows",
			Code:    "FILE005",
		},
	},

	// Cleaning configuration errors
	{
		pattern: "invalid cleaning config",
		msg: UserMessage{
			Message: "The cleaning configuration has invalid values",
			Action:  "Check caseTransform, dedupe and dedupeKeep against the allowed values",
			Code:    "CFG001",
		},
	},
	{
		pattern: "unknown rule",
		msg: UserMessage{
			Message: "Unknown cleaning rule",
			Action:  "Pick one of the listed rules",
			Code:    "CFG002",
		},
	},
	{
		pattern: "invalid delimiter",
		msg: UserMessage{
			Message: "The delimiter cannot be used",
			Action:  "Use a comma, semicolon or tab",
			Code:    "CFG003",
		},
	},
	{
		pattern: "decode preset",
		msg: UserMessage{
			Message: "The preset file could not be read",
			Action:  "Check the YAML syntax and key names",
			Code:    "CFG004",
		},
	},
	{
		pattern: "unknown dedupe",
		msg: UserMessage{
			Message: "Unknown deduplication option",
			Action:  "Use none, exact or normalized with first, last or highestPackage",
			Code:    "CFG005",
		},
	},

	// Dataset errors
	{
		pattern: "duplicate row id",
		msg: UserMessage{
			Message: "Two rows share the same id",
			Action:  "Re-import the file to assign fresh row ids",
			Code:    "DATA001",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "A row holds a column missing from the headers",
			Action:  "Add the column to the headers or drop it from the rows",
			Code:    "DATA002",
		},
	},
	{
		pattern: "duplicate column",
		msg: UserMessage{
			Message: "A column name appears twice",
			Action:  "Rename one of the columns",
			Code:    "DATA003",
		},
	},
	{
		pattern: "invalid status",
		msg: UserMessage{
			Message: "A row has an unknown status",
			Action:  "Use valid or invalid",
			Code:    "DATA004",
		},
	},
	{
		pattern: "too many rows",
		msg: UserMessage{
			Message: "The dataset has more rows than allowed",
			Action:  "Split the dataset into smaller files",
			Code:    "DATA005",
		},
	},
	{
		pattern: "field value must be",
		msg: UserMessage{
			Message: "A field holds an unsupported value",
			Action:  "Fields may only hold text, numbers or null",
			Code:    "DATA006",
		},
	},

	// Request errors
	{
		pattern: "too many concurrent",
		msg: UserMessage{
			Message: "System is busy processing other datasets",
			Action:  "Please wait a moment and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ003",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send a JSON body matching the documented shape",
			Code:    "REQ004",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The
// first pattern contained in the lowercased error text wins; ERR000 is the
// fallback.
//
//	msg := MapError(csvcodec.ErrNoHeader)
//	// msg.Code == "FILE002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its mapped
// message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. It returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
