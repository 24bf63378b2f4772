package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the entity, or a patient or user it references, does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation covers out-of-range values, duplicate unique
	// keys and illegal lifecycle transitions.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrInvalidCredentials is returned by Authenticate.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func notFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

func violation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConstraintViolation, fmt.Sprintf(format, args...))
}

// translate maps database failures onto the store's error kinds. Anything
// unrecognised is returned wrapped with op.
func translate(op string, err error) error {
	err = translateDriver(err)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConstraintViolation):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return violation("%s: duplicate key", op)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s: referenced record does not exist", ErrNotFound, op)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return violation("%s: value out of range", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Driver codes the gorm dialects pass through untranslated.
const (
	mysqlCheckViolated   = 3819
	pgForeignKeyViolated = "23503"
	pgCheckViolated      = "23514"
	sqliteCheckViolated  = 275
)

// translateDriver classifies constraint errors that gorm's TranslateError
// leaves as raw driver errors. Other errors are returned unchanged.
func translateDriver(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlCheckViolated {
		return fmt.Errorf("%w: %s", gorm.ErrCheckConstraintViolated, myErr.Message)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolated:
			return fmt.Errorf("%w: %s", gorm.ErrForeignKeyViolated, pgErr.ConstraintName)
		case pgCheckViolated:
			return fmt.Errorf("%w: %s", gorm.ErrCheckConstraintViolated, pgErr.ConstraintName)
		}
	}
	// The sqlite driver reports extended result codes through Code().
	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code() == sqliteCheckViolated {
		return fmt.Errorf("%w: %s", gorm.ErrCheckConstraintViolated, err.Error())
	}
	return err
}

var validate = validator.New()

// validateStruct runs the model's validate tags and reports failures as
// constraint violations.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validate: %w", err)
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", e.Field(), e.Tag(), e.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s", e.Field(), e.Tag()))
		}
	}
	return violation("%s", strings.Join(messages, ", "))
}
