package sqlerr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/wikitype-api/internal/dao"
	"github.com/deppfellow/wikitype-api/internal/errs"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var (
	mysqlQuotedColumn = regexp.MustCompile(`(?i)column '([^']+)'`)
	uniqueKeySuffix   = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)
)

// ErrCode returns the Code of the first *Error in err's chain, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}

func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

func ConvertMySQLError(src *mysql.MySQLError) *Error {
	sqlErr := &Error{
		Code:         mapMySQLCode(src.Number),
		Severity:     SeverityError,
		DatabaseCode: fmt.Sprintf("%d", src.Number),
		Message:      src.Message,
		driverErr:    src,
	}
	if m := mysqlQuotedColumn.FindStringSubmatch(src.Message); len(m) > 1 {
		sqlErr.ColumnName = m[1]
	}
	return sqlErr
}

func ConvertSQLiteError(src sqlite3.Error) *Error {
	sqlErr := &Error{
		Code:         Other,
		Severity:     SeverityError,
		DatabaseCode: fmt.Sprintf("%d", int(src.ExtendedCode)),
		Message:      src.Error(),
		driverErr:    src,
	}

	switch src.ExtendedCode {
	case sqlite3.ErrConstraintNotNull:
		sqlErr.Code = NotNullViolation
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		sqlErr.Code = UniqueViolation
	case sqlite3.ErrConstraintForeignKey:
		sqlErr.Code = ForeignKeyViolation
	case sqlite3.ErrConstraintCheck:
		sqlErr.Code = CheckViolation
	}

	if sqlErr.Code == Other {
		switch src.Code {
		case sqlite3.ErrTooBig:
			sqlErr.Code = StringDataRightTruncation
		case sqlite3.ErrMismatch:
			sqlErr.Code = InvalidTextRepresentation
		case sqlite3.ErrError:
			sqlErr.Code = SyntaxError
		case sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
			sqlErr.Code = ConnectionException
		}
	}

	// "NOT NULL constraint failed: exercises.title"
	if i := strings.LastIndex(sqlErr.Message, ": "); i >= 0 && src.Code == sqlite3.ErrConstraint {
		if table, column, ok := strings.Cut(sqlErr.Message[i+2:], "."); ok {
			sqlErr.TableName = table
			sqlErr.ColumnName = column
		}
	}
	return sqlErr
}

// Convert lifts a driver error anywhere in err's chain into an *Error. It
// returns nil when err carries no driver error.
func Convert(err error) *Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return ConvertMySQLError(myErr)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr)
	}
	return nil
}

// Normalize wraps err in a *dao.Error describing op. Errors that are
// already normalized pass through unchanged.
func Normalize(op string, err error) error {
	if err == nil {
		return nil
	}

	var daoErr *dao.Error
	if errors.As(err, &daoErr) {
		return err
	}

	if sqlErr := Convert(err); sqlErr != nil {
		return dao.E(sqlErr.Kind(), op, sqlErr)
	}

	return dao.E(classify(err), op, err)
}

func classify(err error) dao.Kind {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, sql.ErrNoRows),
		errors.Is(err, pgx.ErrNoRows):
		return dao.KindNotFound

	case errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, gorm.ErrInvalidField),
		errors.Is(err, gorm.ErrInvalidValue),
		errors.Is(err, gorm.ErrMissingWhereClause),
		errors.Is(err, gorm.ErrPrimaryKeyRequired),
		errors.Is(err, gorm.ErrModelValueRequired),
		errors.Is(err, gorm.ErrUnsupportedRelation):
		return dao.KindInvalidQuery

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return dao.KindServer
	}

	// database/sql reports conversion failures as formatted strings only.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Scan error on column"),
		strings.Contains(msg, "unsupported Scan"):
		return dao.KindDeserialization
	case strings.Contains(msg, "converting argument"):
		return dao.KindSerialization
	}
	return dao.KindServer
}

func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, InvalidTextRepresentation, InvalidDatetimeFormat, NumericValueOutOfRange:
		action = "INVALID"
	case StringDataRightTruncation:
		action = "TOO_LONG"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)
	fieldName := humanizeText(sqlErr.ColumnName)
	if fieldName == "" {
		fieldName = "field"
	}

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)
	case UniqueViolation:
		if column := extractColumnForUniqueViolation(sqlErr.ConstraintName); column != "" {
			return fmt.Sprintf("A %s with this %s already exists", entityName, humanizeText(column))
		}
		return fmt.Sprintf("A %s with this identifier already exists", entityName)
	case NotNullViolation:
		return fmt.Sprintf("The %s is required", fieldName)
	case CheckViolation:
		return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
	case StringDataRightTruncation:
		return fmt.Sprintf("The %s value is too long", fieldName)
	case InvalidTextRepresentation, InvalidDatetimeFormat, NumericValueOutOfRange:
		return fmt.Sprintf("The %s value has an invalid format", fieldName)
	default:
		return ""
	}
}

func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		return humanizeText(strings.TrimSuffix(strings.ToLower(columnName), "_id"))
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnForUniqueViolation guesses the column from constraint names
// such as "unique_exercises_title" or "exercises_title_key".
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if matches := uniqueKeySuffix.FindStringSubmatch(constraintName); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// HandleError converts any error reaching the HTTP error funnel into an
// *errs.HTTPError. Server errors never expose their cause.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var daoErr *dao.Error
	if !errors.As(Normalize("", err), &daoErr) {
		return errs.NewInternalServerError()
	}

	switch daoErr.Kind {
	case dao.KindNotFound:
		return errs.NewNotFoundError("Resource not found", false, nil)

	case dao.KindInvalidQuery, dao.KindSerialization, dao.KindDeserialization:
		var sqlErr *Error
		if errors.As(daoErr, &sqlErr) {
			errorCode := sqlErr.AppCode()
			var fieldErrors []errs.FieldError
			if sqlErr.ColumnName != "" {
				fieldErrors = []errs.FieldError{{
					Field: strings.ToLower(sqlErr.ColumnName),
					Error: "is invalid",
				}}
			}
			message := formatUserFriendlyMessage(sqlErr)
			if message == "" {
				message = "The request could not be processed"
			}
			return errs.NewBadRequestError(message, true, &errorCode, fieldErrors)
		}
		return errs.NewBadRequestError("The request could not be processed", false, nil, nil)

	default:
		return errs.NewInternalServerError()
	}
}
