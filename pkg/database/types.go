package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONColumn stores an arbitrary value as a JSON text column. It works the
// same across postgres, mysql and sqlite, which keeps the driver switch in
// Config honest.
type JSONColumn[T any] struct {
	Data T
}

// Scan implements sql.Scanner.
func (j *JSONColumn[T]) Scan(value interface{}) error {
	if value == nil {
		var zero T
		j.Data = zero
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, &j.Data)
	case string:
		return json.Unmarshal([]byte(v), &j.Data)
	default:
		return errors.New("JSONColumn: unsupported scan type")
	}
}

// Value implements driver.Valuer.
func (j JSONColumn[T]) Value() (driver.Value, error) {
	data, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType hints GORM at the column type.
func (JSONColumn[T]) GormDataType() string {
	return "text"
}
