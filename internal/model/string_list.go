package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is an ordered list of strings persisted as a JSON array.
// NULL and empty columns scan to an empty list.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("string list: unsupported column type %T", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*l = StringList{}
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	if items == nil {
		items = []string{}
	}
	*l = items
	return nil
}

func (StringList) GormDataType() string {
	return "json"
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}
