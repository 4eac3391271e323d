package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"storefront-api/internal/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNumericOutOfRange   = "22003"
)

// constraintFields names the request field behind constraints whose names
// do not follow the <table>_<column>_fkey pattern.
var constraintFields = map[string]string{
	"users_email_key":           "email",
	"profiles_phone_key":        "phone",
	"products_title_active_key": "title",
	"categories_name_key":       "name",
	"orders_invoice_key":        "invoice",
	"carts_qty_range":           "quantity",
}

// MapError translates driver errors into the domain taxonomy and passes
// everything else through unchanged. Constraint names stay out of the
// returned message; callers log the original error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		field := constraintField(pgErr)
		switch pgErr.Code {
		case codeUniqueViolation:
			if field == "" {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("%s %w", field, domain.ErrAlreadyExists)
		case codeForeignKeyViolation:
			return &domain.ValidationError{Field: field, Message: "referenced record does not exist"}
		case codeCheckViolation, codeNumericOutOfRange:
			return &domain.ValidationError{Field: field, Message: "value is out of range"}
		}
	}
	return err
}

func constraintField(pgErr *pgconn.PgError) string {
	name := pgErr.ConstraintName
	if f, ok := constraintFields[name]; ok {
		return f
	}
	if pgErr.TableName != "" && strings.HasSuffix(name, "_fkey") {
		return strings.TrimSuffix(strings.TrimPrefix(name, pgErr.TableName+"_"), "_fkey")
	}
	return ""
}
