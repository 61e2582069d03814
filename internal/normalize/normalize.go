// Package normalize coerces fetched records into typed rows. Normalization is
// best effort: a row whose required field cannot be coerced is dropped and
// counted, never fatal.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrCoercion marks a field that could not be converted to its numeric type.
var ErrCoercion = errors.New("coercion failed")

var dateLayouts = []string{"2006.01.02", "2006-01-02", "20060102"}

var digitsPattern = regexp.MustCompile(`[\d,]+`)

func parseInt(field, raw string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, fmt.Errorf("%s: empty value: %w", field, ErrCoercion)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some sources render integers as "1234.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("%s: %q: %w", field, raw, ErrCoercion)
		}
		v = int64(f)
	}
	return v, nil
}

func parseUint(field, raw string) (int64, error) {
	v, err := parseInt(field, raw)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%s: negative value %d: %w", field, v, ErrCoercion)
	}
	return v, nil
}

func parseDate(field, raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: %q: %w", field, raw, ErrCoercion)
}

func isBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}
