package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a backend employee identifier. The backend emits it either as a JSON
// number or as a quoted number depending on the endpoint.
type ID int

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("invalid employee id %s: %w", b, err)
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string { return strconv.Itoa(int(id)) }

// ParseID parses a path parameter into an ID
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid employee id %q", s)
	}
	return ID(n), nil
}

// Ref is an identifier of a child record; numbers and strings are both accepted.
type Ref string

func (r *Ref) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	*r = Ref(b)
	return nil
}

// Decimal is a monetary or numeric value that may arrive as "1500.00" or 1500.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*d = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", b, err)
	}
	*d = Decimal(f)
	return nil
}

func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', -1, 64)
}
