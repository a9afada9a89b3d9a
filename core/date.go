package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day (UTC midnight) serialized as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	return NewDate(time.Now().UTC())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		// also accept full timestamps
		t, tErr := time.Parse(time.RFC3339, s)
		if tErr != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
		}
		parsed = NewDate(t)
	}
	*d = parsed
	return nil
}

// Scan implements the sql.Scanner interface.
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v)
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	if len(s) < len(DateLayout) {
		return fmt.Errorf("cannot scan %q into Date", s)
	}
	parsed, err := ParseDate(s[:len(DateLayout)])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements the driver.Valuer interface.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}
