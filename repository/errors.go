package repository

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations
const uniqueViolation = "23505"

// ErrDuplicateKey matches every DuplicateKeyError through errors.Is
var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKeyError names the column whose uniqueness was violated
type DuplicateKeyError struct {
	Field      string
	Constraint string
	Err        error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return "duplicate key"
	}
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

var constraintFields = map[string]string{
	"uk_accounts_email":        "email",
	"uk_accounts_contact":      "contact",
	"uk_franchises_email":      "email",
	"uk_franchises_account_id": "user",
	"uk_districts_name":        "name",
	"uk_areas_name_district":   "name",
	"uk_streams_slot":          "slot",
}

var detailKeyPattern = regexp.MustCompile(`Key \(([^)]+)\)=`)

// translateError turns driver level unique violations into DuplicateKeyError
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &DuplicateKeyError{
			Field:      fieldFromConstraint(pgErr.ConstraintName, pgErr.Detail),
			Constraint: pgErr.ConstraintName,
			Err:        err,
		}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateKeyError{Err: err}
	}

	return err
}

func fieldFromConstraint(constraint, detail string) string {
	if field, ok := constraintFields[constraint]; ok {
		return field
	}
	if m := detailKeyPattern.FindStringSubmatch(detail); len(m) == 2 {
		return m[1]
	}
	return ""
}

// DuplicateField returns the violated field of a duplicate key error, if any
func DuplicateField(err error) (string, bool) {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return dup.Field, true
	}
	return "", false
}
