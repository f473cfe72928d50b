package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func nullInt64ToInt64(value sql.NullInt64) int64 {
	if !value.Valid {
		return 0
	}
	return value.Int64
}

// int64ToNull stores zero as NULL so partial unique indexes on external ids
// ignore rows without one.
func int64ToNull(value int64) sql.NullInt64 {
	return sql.NullInt64{Int64: value, Valid: value != 0}
}

func stringToNull(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}

func timeToNull(value *time.Time) sql.NullTime {
	if value == nil || value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

func nullTimeToPtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}

// jsonColumn maps a JSONB column onto a Go value.
type jsonColumn[T any] struct {
	V T
}

func jsonOf[T any](value T) jsonColumn[T] {
	return jsonColumn[T]{V: value}
}

func (c jsonColumn[T]) Value() (driver.Value, error) {
	raw, err := jsoniter.Marshal(c.V)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb column: %w", err)
	}
	return string(raw), nil
}

func (c *jsonColumn[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		var zero T
		c.V = zero
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := jsoniter.Unmarshal(raw, &c.V); err != nil {
		return fmt.Errorf("decode jsonb column: %w", err)
	}
	return nil
}
