package codes

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var (
	// ErrUnknownCodeset is returned when a codeset id has no data.
	ErrUnknownCodeset = errors.New("unknown codeset")

	// ErrUnknownPattern is returned when a pattern name is not used anywhere in a codeset.
	ErrUnknownPattern = errors.New("unknown pattern")

	// ErrUnknownValue is returned when a value is not present in a codeset.
	ErrUnknownValue = errors.New("unknown value")

	// ErrUnknownLocaleData is returned when a value or codeset exists but has
	// no data for the requested locale or option column.
	ErrUnknownLocaleData = errors.New("no data for locale")

	// ErrUnknownOptionColumn is returned when an option column is not used anywhere in a codeset.
	ErrUnknownOptionColumn = errors.New("unknown option column")

	// ErrLoadFailure is returned when the loader could not produce data.
	ErrLoadFailure = errors.New("code load failure")

	// ErrResolverNotRegistered is returned when no resolver is registered under a name.
	ErrResolverNotRegistered = errors.New("resolver not registered")

	// ErrInvalidData is returned when loader rows cannot be built into a code set.
	ErrInvalidData = errors.New("invalid code data")
)

// LookupError describes a failed lookup. Err is one of the package sentinels,
// so callers can test it with errors.Is.
type LookupError struct {
	Op        string
	CodesetID string
	Value     string
	Pattern   string
	Column    string
	Locale    language.Tag
	Err       error
}

func (e *LookupError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	sb.WriteString(" (codeset=")
	sb.WriteString(e.CodesetID)
	if e.Value != "" {
		sb.WriteString(", value=" + e.Value)
	}
	if e.Pattern != "" {
		sb.WriteString(", pattern=" + e.Pattern)
	}
	if e.Column != "" {
		sb.WriteString(", column=" + e.Column)
	}
	if e.Locale != language.Und {
		sb.WriteString(", locale=" + e.Locale.String())
	}
	sb.WriteString(")")
	return sb.String()
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// dataError reports a row that cannot be built.
func dataError(codesetID, value, format string, args ...any) error {
	return fmt.Errorf("%w: codeset %q value %q: %s", ErrInvalidData, codesetID, value, fmt.Sprintf(format, args...))
}
