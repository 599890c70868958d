// flex_date.go
//
// A Go Fiber compliance tracking data service, drop-in replacement for the nodejs backend
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of compliance-registry.
// compliance-registry is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// compliance-registry is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with compliance-registry.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// FlexDate is a calendar date that can be unmarshaled from either a bare
// "YYYY-MM-DD" string or a full RFC 3339 timestamp (the JS client sends both).
// It marshals as "YYYY-MM-DD".
type FlexDate struct {
	time.Time
}

// NewFlexDate builds a FlexDate from a time value, truncated to the day.
func NewFlexDate(t time.Time) FlexDate {
	return FlexDate{Time: t}
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *FlexDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("FlexDate: expected string: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	t, err := parseFlexDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (d FlexDate) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(dateLayout))
}

// Value implements the driver.Valuer interface.
func (d FlexDate) Value() (driver.Value, error) {
	if d.Time.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// Scan implements the sql.Scanner interface. Drivers return date columns as
// time.Time, string, or raw bytes depending on the dialect.
func (d *FlexDate) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = v
		return nil
	case string:
		t, err := parseFlexDate(v)
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case []byte:
		t, err := parseFlexDate(string(v))
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	}
	return fmt.Errorf("FlexDate: cannot scan %T", value)
}

// parseFlexDate tries the accepted layouts, most specific first.
func parseFlexDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, dateLayout, "2006-01-02 15:04:05-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("FlexDate: invalid date %q", s)
}
