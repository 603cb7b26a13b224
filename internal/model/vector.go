package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Vector maps []float32 onto the pgvector column literal form "[v1,v2,...]".
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

func (v *Vector) Scan(src interface{}) error {
	var raw string
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		raw = s
	case []byte:
		raw = string(s)
	default:
		return fmt.Errorf("scan vector: unsupported source type %T", src)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if raw == "" {
		*v = Vector{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(Vector, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("scan vector: parse element failed: %w", err)
		}
		out = append(out, float32(f))
	}
	*v = out
	return nil
}

// GormDataType pins the column to the pgvector type sized for
// text-embedding-004 output.
func (Vector) GormDataType() string {
	return "vector(768)"
}
