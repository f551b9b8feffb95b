package core

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// FieldErrors collects validation messages keyed by form field.
type FieldErrors map[string]string

// Add records msg for field unless the field already failed.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; ok {
		return
	}
	fe[field] = msg
}

func (fe FieldErrors) Check(field string, ok bool, msg string) {
	if !ok {
		fe.Add(field, msg)
	}
}

func (fe FieldErrors) MinLen(field, value string, n int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		fe.Add(field, fmt.Sprintf("must be at least %d characters", n))
	}
}

func (fe FieldErrors) Amount(field string, m Money) {
	if err := m.Validate(); err != nil {
		fe.Add(field, err.Error())
	}
}

func (fe FieldErrors) Date(field string, d Date) {
	if d.IsEmpty() {
		fe.Add(field, "is required")
		return
	}
	if err := d.Validate(); err != nil {
		fe.Add(field, err.Error())
	}
}

// Err returns nil when no field failed.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
