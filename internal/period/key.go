package period

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidKey is returned for identifiers that are not in YY.MM form.
var ErrInvalidKey = errors.New("period: invalid key")

// Key identifies a reporting month in YY.MM form, e.g. "25.12".
type Key struct {
	Year  int
	Month time.Month
}

// ParseKey parses a YY.MM identifier. Years are interpreted as 2000+YY.
func ParseKey(raw string) (Key, error) {
	yy, mm, ok := strings.Cut(strings.TrimSpace(raw), ".")
	if !ok || len(yy) != 2 || len(mm) != 2 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
	year, err := strconv.Atoi(yy)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
	return Key{Year: 2000 + year, Month: time.Month(month)}, nil
}

// MustParseKey is ParseKey for literals in tests and defaults.
func MustParseKey(raw string) Key {
	key, err := ParseKey(raw)
	if err != nil {
		panic(err)
	}
	return key
}

// KeyOf returns the key containing t.
func KeyOf(t time.Time) Key {
	return Key{Year: t.Year(), Month: t.Month()}
}

func (k Key) String() string {
	return fmt.Sprintf("%02d.%02d", k.Year%100, int(k.Month))
}

// IsZero reports whether k is unset.
func (k Key) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// ShortName renders e.g. "Jan 2025".
func (k Key) ShortName() string {
	return k.Start().Format("Jan 2006")
}

// LongName renders e.g. "January 2025".
func (k Key) LongName() string {
	return k.Start().Format("January 2006")
}

// Start returns midnight UTC on the first day of the month.
func (k Key) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Quarter returns 1..4.
func (k Key) Quarter() int {
	return (int(k.Month)-1)/3 + 1
}

// QuarterStart returns the first month of k's quarter.
func (k Key) QuarterStart() Key {
	return Key{Year: k.Year, Month: time.Month((k.Quarter()-1)*3 + 1)}
}

// YearStart returns January of k's year.
func (k Key) YearStart() Key {
	return Key{Year: k.Year, Month: time.January}
}

// Before reports whether k precedes other.
func (k Key) Before(other Key) bool {
	return k.index() < other.index()
}

// Add shifts k by n months.
func (k Key) Add(months int) Key {
	return KeyOf(k.Start().AddDate(0, months, 0))
}

func (k Key) index() int {
	return k.Year*12 + int(k.Month) - 1
}

// MarshalText encodes the key as YY.MM. The zero key encodes as "".
func (k Key) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return []byte{}, nil
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a YY.MM key.
func (k *Key) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = Key{}
		return nil
	}
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SortNewestFirst orders keys in reverse chronological order.
func SortNewestFirst(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[j].Before(keys[i])
	})
}
