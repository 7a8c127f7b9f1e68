package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/hiersearch/helper"
)

// Links represents the links of a chunk stored as JSONB in PostgreSQL
type Links []Link

// Value implements the driver.Valuer interface for database storage
func (l Links) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for database retrieval
func (l *Links) Scan(value interface{}) error {
	if value == nil {
		*l = Links{}
		return nil
	}

	if s, ok := value.(Links); ok {
		*l = s
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, l)
}

// Paths returns the targets of the links
func (l Links) Paths() []string {
	paths := make([]string, len(l))
	for i, link := range l {
		paths[i] = link.Path
	}
	return paths
}
