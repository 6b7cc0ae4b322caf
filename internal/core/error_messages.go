// Package core provides the ingestion logic for the fuel price feeds.
//
// # Error Codes Reference
//
// This file maps errors to short operator-facing messages with a code that
// can be grepped for in logs and runbooks.
//
// # Feed Errors (FEED001-FEED099)
//
//	FEED001 - Header timestamp: the first line has no dd/MM/yyyy HH:mm timestamp
//	          Action: Check that the file is an unmodified export
//	FEED002 - Feed not found: the configured feed file does not exist
//	          Action: Check FEED_LAND_PATH / FEED_MARITIME_PATH
//	FEED003 - Invalid layout: a feed layout definition is incomplete
//	          Action: Fix the layouts file referenced by FEED_LAYOUTS_FILE
//
// # Row Errors (ROW001-ROW099)
//
// Row errors never abort a run; they appear on skipped-row log entries.
//
//	ROW001 - Invalid coordinates
//	ROW002 - Row too short
//	ROW003 - Invalid price
//
// # Reference Errors (REF001-REF099)
//
//	REF001 - Resolver invariant: a company could be neither inserted nor found
//	         Action: Check the unique constraint on empresa.nombre
//	REF002 - Unknown fuel type: a price references a fuel type that was not seeded
//	         Action: Check the layouts file fuel type names
//	REF003 - Missing price: a price observation was written without a value
//
// # Database Errors (DB001-DB099)
//
// Matched on the driver's error text:
//
//	DB003 - Foreign key violation
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logged technical error.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides operator-facing error information with guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// sentinelMessages maps wrapped sentinel errors to messages. Checked with
// errors.Is before any text matching.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrHeaderTimestamp, UserMessage{
		Message: "Feed header has no valid timestamp",
		Action:  "Check that the file is an unmodified export",
		Code:    "FEED001",
	}},
	{ErrFeedNotFound, UserMessage{
		Message: "Feed file not found",
		Action:  "Check FEED_LAND_PATH and FEED_MARITIME_PATH",
		Code:    "FEED002",
	}},
	{ErrInvalidLayout, UserMessage{
		Message: "Feed layout is invalid",
		Action:  "Fix the layouts file referenced by FEED_LAYOUTS_FILE",
		Code:    "FEED003",
	}},
	{ErrInvalidCoordinates, UserMessage{
		Message: "Row has invalid coordinates",
		Action:  "Row skipped",
		Code:    "ROW001",
	}},
	{ErrShortRow, UserMessage{
		Message: "Row has fewer columns than the layout expects",
		Action:  "Row skipped",
		Code:    "ROW002",
	}},
	{ErrInvalidPrice, UserMessage{
		Message: "Row has a price that is not a number",
		Action:  "Row skipped",
		Code:    "ROW003",
	}},
	{ErrResolverInvariant, UserMessage{
		Message: "Company could be neither inserted nor found",
		Action:  "Check the unique constraint on empresa.nombre",
		Code:    "REF001",
	}},
	{ErrUnknownFuelType, UserMessage{
		Message: "Price references an unknown fuel type",
		Action:  "Check the fuel type names in the layouts file",
		Code:    "REF002",
	}},
	{ErrMissingPrice, UserMessage{
		Message: "Price observation has no value",
		Action:  "Report this as a bug",
		Code:    "REF003",
	}},
}

// errorPattern defines a pattern to match and its corresponding message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps driver error text (case-insensitive) to messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Check that the schema matches the expected tables",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DATABASE_URL and that the database is running",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Run the ingestion again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Check database load and DB_CONNECT_TIMEOUT",
			Code:    "DB006",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Check database load and DB_CONNECT_TIMEOUT",
			Code:    "DB006",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logged error for details",
	Code:    "ERR000",
}

// MapError converts an error to an operator-facing message.
// Sentinel errors are matched with errors.Is, then the error text is
// searched for known driver patterns. Falls back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
