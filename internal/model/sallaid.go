package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SallaID is an identifier issued by Salla. The API sends them as JSON
// numbers in some payloads and as strings in others.
type SallaID string

func (id *SallaID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = SallaID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid salla id %s: %w", b, err)
	}
	*id = SallaID(n.String())
	return nil
}

func (id SallaID) String() string {
	return string(id)
}

// stringify renders a decoded JSON scalar the way Salla would print it.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
