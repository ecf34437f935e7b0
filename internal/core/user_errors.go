package core

// user_errors.go maps technical errors to user-facing messages with codes
// that can be quoted to support.
//
// # Error Codes Reference
//
// Matching runs in three passes; the first hit wins:
//
//  1. Known sentinels, via errors.Is.
//  2. Driver error codes: PostgreSQL SQLSTATE (*pgconn.PgError) and MySQL
//     error numbers (*mysql.MySQLError), via errors.As.
//  3. Case-insensitive substrings of the error text, for network errors that
//     carry no structured code.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - CSV file not found            ErrFileNotFound
//	FILE002 - Path outside the data dir     ErrPathOutsideDataDir
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy                    ErrTooManyImports
//	IMP002 - Import timed out               context.DeadlineExceeded
//	IMP003 - Import cancelled               context.Canceled
//	IMP004 - Unknown import ID              ErrImportNotFound
//	IMP005 - Malformed request body         ErrInvalidImportRequest
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate value                 23505 / 1062
//	DB002 - Required value missing          23502 / 1048
//	DB003 - Table missing                   42P01 / 1146
//	DB004 - Connection refused              "connection refused"
//	DB005 - Connection reset                "connection reset", "broken pipe"
//	DB006 - Deadlock                        40P01 / 1213
//	DB007 - Value out of range              22003 / 1264
//	DB008 - Invalid JSON value              22P02 / 3140
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileNotFound = UserMessage{
		Message: "CSV file not found",
		Action:  "Check the csvPath and that the file exists on the server",
		Code:    "FILE001",
	}
	msgBadPath = UserMessage{
		Message: "The CSV path is not allowed",
		Action:  "Use a path inside the import data directory",
		Code:    "FILE002",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}
	msgTimeout = UserMessage{
		Message: "Import timed out",
		Action:  "Try a smaller file or raise IMPORT_TIMEOUT",
		Code:    "IMP002",
	}
	msgCancelled = UserMessage{
		Message: "Import was cancelled",
		Action:  "Please try again",
		Code:    "IMP003",
	}
	msgUnknownImport = UserMessage{
		Message: "No import with this ID is known",
		Action:  "Check the ID or list recent imports at /imports",
		Code:    "IMP004",
	}
	msgBadRequest = UserMessage{
		Message: "The import request could not be read",
		Action:  `Send an empty body or a JSON object like {"csvPath": "sample.csv"}`,
		Code:    "IMP005",
	}
	msgDuplicate = UserMessage{
		Message: "A record with this value already exists",
		Action:  "Check the table's unique constraints against your data",
		Code:    "DB001",
	}
	msgNotNull = UserMessage{
		Message: "A required value is missing",
		Action:  "Ensure every row has a name and an age",
		Code:    "DB002",
	}
	msgNoTable = UserMessage{
		Message: "The target table does not exist",
		Action:  "Enable DB_AUTO_MIGRATE or create the table",
		Code:    "DB003",
	}
	msgRefused = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}
	msgReset = UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}
	msgDeadlock = UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB006",
	}
	msgOutOfRange = UserMessage{
		Message: "A value is out of range for its column",
		Action:  "Check the age column for very large numbers",
		Code:    "DB007",
	}
	msgBadJSON = UserMessage{
		Message: "A value could not be stored as JSON",
		Action:  "Check address and extra columns for unusual content",
		Code:    "DB008",
	}
)

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileNotFound, msgFileNotFound},
	{ErrPathOutsideDataDir, msgBadPath},
	{ErrTooManyImports, msgBusy},
	{context.DeadlineExceeded, msgTimeout},
	{context.Canceled, msgCancelled},
	{ErrImportNotFound, msgUnknownImport},
	{ErrInvalidImportRequest, msgBadRequest},
}

var pgStateMessages = map[string]UserMessage{
	"23505": msgDuplicate,
	"23502": msgNotNull,
	"42P01": msgNoTable,
	"40P01": msgDeadlock,
	"22003": msgOutOfRange,
	"22P02": msgBadJSON,
}

var mysqlNumberMessages = map[uint16]UserMessage{
	1062: msgDuplicate,
	1048: msgNotNull,
	1146: msgNoTable,
	1213: msgDeadlock,
	1264: msgOutOfRange,
	3140: msgBadJSON,
}

// textPatterns are matched case-insensitively, in order.
var textPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"connection refused", msgRefused},
	{"connection reset", msgReset},
	{"broken pipe", msgReset},
	{"bad connection", msgReset},
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := pgStateMessages[pgErr.Code]; ok {
			return msg
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if msg, ok := mysqlNumberMessages[myErr.Number]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range textPatterns {
		if strings.Contains(errStr, p.pattern) {
			return p.msg
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

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
