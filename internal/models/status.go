package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle flag shared by products and flavors.
// Any value may move to any other; there is no transition graph.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDisabled Status = "DISABLED"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusDisabled
}

// ParseStatus normalizes the loose representations older clients send
// (ATIVO/DESATIVADO, booleans, 0/1, {"status": "..."}) into the closed enum.
func ParseStatus(v any) (Status, error) {
	switch t := v.(type) {
	case Status:
		return ParseStatus(string(t))
	case string:
		switch strings.ToUpper(strings.TrimSpace(t)) {
		case "ACTIVE", "ATIVO", "ATIVA", "ENABLED", "1", "TRUE":
			return StatusActive, nil
		case "DISABLED", "DESATIVADO", "DESATIVADA", "INACTIVE", "INATIVO", "0", "FALSE":
			return StatusDisabled, nil
		}
	case []byte:
		return ParseStatus(string(t))
	case bool:
		if t {
			return StatusActive, nil
		}
		return StatusDisabled, nil
	case float64:
		return statusFromInt(int64(t))
	case int:
		return statusFromInt(int64(t))
	case int64:
		return statusFromInt(t)
	case map[string]any:
		for _, key := range []string{"status", "value", "name"} {
			if inner, ok := t[key]; ok {
				return ParseStatus(inner)
			}
		}
	}
	return "", fmt.Errorf("invalid status %v: must be ACTIVE or DISABLED", v)
}

func statusFromInt(n int64) (Status, error) {
	switch n {
	case 1:
		return StatusActive, nil
	case 0:
		return StatusDisabled, nil
	}
	return "", fmt.Errorf("invalid status %d: must be ACTIVE or DISABLED", n)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *Status) Scan(value any) error {
	if value == nil {
		*s = StatusActive
		return nil
	}
	parsed, err := ParseStatus(value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %q", string(s))
	}
	return string(s), nil
}
