package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func jsonValue(v any) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func jsonScan(dest any, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}

func (p ProctoringConfig) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *ProctoringConfig) Scan(value any) error {
	return jsonScan(p, value)
}

func (v ProctoringViolations) Value() (driver.Value, error) {
	return jsonValue(v)
}

func (v *ProctoringViolations) Scan(value any) error {
	return jsonScan(v, value)
}
