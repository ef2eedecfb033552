package repository

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// keywordList scans the JSONB keywords column.  Depending on the driver the
// value arrives as raw JSON text or bytes, or already decoded; anything that
// is not a list of strings reads as an empty list instead of failing the row.
type keywordList []string

func (k *keywordList) Scan(src any) error {
	*k = keywordList{}
	switch v := src.(type) {
	case []byte:
		k.parse(v)
	case string:
		k.parse([]byte(v))
	case []string:
		*k = append(keywordList{}, v...)
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				*k = append(*k, s)
			}
		}
	}
	return nil
}

func (k *keywordList) parse(b []byte) {
	var out []string
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		return
	}
	*k = out
}

// Value encodes the list as a JSON array; nil encodes as [].
func (k keywordList) Value() (driver.Value, error) {
	if k == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(k))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// cleanKeywords trims entries and drops blanks.
func cleanKeywords(in []string) keywordList {
	out := keywordList{}
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
