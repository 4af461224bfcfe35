package repository

import (
	"database/sql/driver"
	"encoding/json"
)

// stringsSQL is a JSON array of strings for SQL operations
type stringsSQL []string

// Value implements driver.Valuer for database storage
func (s stringsSQL) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for database retrieval
func (s *stringsSQL) Scan(value interface{}) error {
	if value == nil {
		*s = stringsSQL{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return json.Unmarshal([]byte("[]"), s)
	}

	return json.Unmarshal(data, s)
}

// scoresSQL is a JSON label->probability map for SQL operations
type scoresSQL map[string]float64

// Value implements driver.Valuer for database storage
func (m scoresSQL) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *scoresSQL) Scan(value interface{}) error {
	if value == nil {
		*m = scoresSQL{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return json.Unmarshal([]byte("{}"), m)
	}

	return json.Unmarshal(data, m)
}

// metadataSQL is a JSON string map for SQL operations
type metadataSQL map[string]string

// Value implements driver.Valuer for database storage
func (m metadataSQL) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *metadataSQL) Scan(value interface{}) error {
	if value == nil {
		*m = metadataSQL{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return json.Unmarshal([]byte("{}"), m)
	}

	return json.Unmarshal(data, m)
}
