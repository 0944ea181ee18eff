package attendance

import (
	"encoding/json"
	"strings"
	"time"
)

// Layouts used by the backend for dates and times of day.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Status is the attendance state recorded for a day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
	StatusLeave   Status = "leave"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusPresent, StatusLate, StatusAbsent, StatusExcused, StatusLeave}
}

// ParseStatus normalizes a status name. ok is false for unknown values.
func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Statuses() {
		if s == known {
			return s, true
		}
	}
	return s, false
}

// Record mirrors one attendance row returned by /attendances.
type Record struct {
	ID            int64  `json:"id"`
	PersonnelID   int64  `json:"personnel_id"`
	PersonnelName string `json:"personnel_name,omitempty"`
	Date          string `json:"date"`
	CheckIn       string `json:"check_in,omitempty"`
	CheckOut      string `json:"check_out,omitempty"`
	Status        Status `json:"status"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// ParsedDate returns Date as a local midnight, or zero when unparseable.
func (r Record) ParsedDate() time.Time {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(r.Date), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParsedCheckIn returns the check-in instant on the record's date.
func (r Record) ParsedCheckIn() time.Time {
	return r.clock(r.CheckIn)
}

// ParsedCheckOut returns the check-out instant on the record's date.
func (r Record) ParsedCheckOut() time.Time {
	return r.clock(r.CheckOut)
}

// Open reports whether the person checked in and has not checked out.
func (r Record) Open() bool {
	return r.CheckIn != "" && r.CheckOut == ""
}

// Worked returns the time between check-in and check-out. It is zero while
// the record is open or when either time is missing.
func (r Record) Worked() time.Duration {
	in, out := r.ParsedCheckIn(), r.ParsedCheckOut()
	if in.IsZero() || out.IsZero() || out.Before(in) {
		return 0
	}
	return out.Sub(in)
}

// clock accepts a full timestamp or a time of day relative to Date.
func (r Record) clock(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	day := r.ParsedDate()
	if day.IsZero() {
		return time.Time{}
	}
	for _, layout := range []string{TimeLayout, "15:04"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
		}
	}
	return time.Time{}
}

// Input is the writable subset of a Record. Empty fields are omitted, so
// Update only changes what is set.
type Input struct {
	PersonnelID int64  `json:"personnel_id,omitempty"`
	Date        string `json:"date,omitempty"`
	CheckIn     string `json:"check_in,omitempty"`
	CheckOut    string `json:"check_out,omitempty"`
	Status      Status `json:"status,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Summary counts records per status.
type Summary map[Status]int

// Summarize tallies records by status.
func Summarize(records []Record) Summary {
	out := Summary{}
	for _, r := range records {
		out[r.Status]++
	}
	return out
}

// decodeList accepts both a bare array and {"items": [...]}.
func decodeList(raw json.RawMessage) ([]Record, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var records []Record
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var wrapped struct {
		Items []Record `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}
