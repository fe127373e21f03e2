// Package sqlerr translates errors from the database drivers and the ORM into
// the dao error taxonomy. It is the only package that knows about
// driver-specific error types.
package sqlerr

import (
	"fmt"
	"strings"

	"github.com/deppfellow/wikitype-api/internal/dao"
)

// Code is a driver independent classification of a database error.
type Code string

const (
	Other                     Code = "other"
	NotNullViolation          Code = "not_null_violation"
	ForeignKeyViolation       Code = "foreign_key_violation"
	UniqueViolation           Code = "unique_violation"
	CheckViolation            Code = "check_violation"
	StringDataRightTruncation Code = "string_data_right_truncation"
	InvalidTextRepresentation Code = "invalid_text_representation"
	InvalidDatetimeFormat     Code = "invalid_datetime_format"
	NumericValueOutOfRange    Code = "numeric_value_out_of_range"
	SyntaxError               Code = "syntax_error"
	UndefinedColumn           Code = "undefined_column"
	UndefinedTable            Code = "undefined_table"
	ConnectionException       Code = "connection_exception"
	InsufficientResources     Code = "insufficient_resources"
)

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// Error is a database error with its driver specific detail lifted into
// common fields.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	if msg := formatUserFriendlyMessage(e); msg != "" {
		return fmt.Sprintf("%s (%s): %s", msg, e.DatabaseCode, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.DatabaseCode)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// Kind places the error in the dao taxonomy. Constraint violations are
// server errors: ids are generated here and required fields are checked
// before a statement is ever built.
func (e *Error) Kind() dao.Kind {
	switch e.Code {
	case StringDataRightTruncation, InvalidTextRepresentation, InvalidDatetimeFormat, NumericValueOutOfRange:
		return dao.KindSerialization
	case SyntaxError, UndefinedColumn, UndefinedTable:
		return dao.KindInvalidQuery
	default:
		return dao.KindServer
	}
}

// AppCode is a stable, log friendly code such as EXERCISE_ALREADY_EXISTS.
func (e *Error) AppCode() string {
	return generateErrorCode(e.TableName, e.Code)
}

// MapCode maps a PostgreSQL SQLSTATE to a Code.
func MapCode(sqlstate string) Code {
	switch sqlstate {
	case "23502":
		return NotNullViolation
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23514":
		return CheckViolation
	case "22001":
		return StringDataRightTruncation
	case "22P02":
		return InvalidTextRepresentation
	case "22007", "22008":
		return InvalidDatetimeFormat
	case "22003":
		return NumericValueOutOfRange
	case "42601":
		return SyntaxError
	case "42703":
		return UndefinedColumn
	case "42P01":
		return UndefinedTable
	case "53000", "53100", "53200", "53300":
		return InsufficientResources
	}

	if strings.HasPrefix(sqlstate, "08") {
		return ConnectionException
	}
	return Other
}

func MapSeverity(severity string) Severity {
	switch strings.ToUpper(severity) {
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	case "WARNING":
		return SeverityWarning
	case "NOTICE":
		return SeverityNotice
	case "DEBUG":
		return SeverityDebug
	case "INFO":
		return SeverityInfo
	case "LOG":
		return SeverityLog
	default:
		return SeverityError
	}
}

// mapMySQLCode maps a MySQL server error number to a Code.
func mapMySQLCode(number uint16) Code {
	switch number {
	case 1048, 1364:
		return NotNullViolation
	case 1216, 1217, 1451, 1452:
		return ForeignKeyViolation
	case 1062, 1586:
		return UniqueViolation
	case 3819:
		return CheckViolation
	case 1406:
		return StringDataRightTruncation
	case 1366:
		return InvalidTextRepresentation
	case 1292:
		return InvalidDatetimeFormat
	case 1264:
		return NumericValueOutOfRange
	case 1064:
		return SyntaxError
	case 1054:
		return UndefinedColumn
	case 1146:
		return UndefinedTable
	case 1040, 1041, 1203:
		return InsufficientResources
	case 2002, 2003, 2006, 2013:
		return ConnectionException
	default:
		return Other
	}
}
