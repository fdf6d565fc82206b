package codes

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Row is one record supplied by a Loader: the data of a single code value in
// a single locale.
type Row struct {
	CodesetID string
	Value     string
	Locale    string

	// SortOrder positions the value within the locale's ordering. Values with
	// a nil SortOrder are left out of that locale's value lists.
	SortOrder *int

	Name      string
	ShortName string

	// Options maps option column names to their display strings.
	Options map[string]string

	// Patterns maps pattern names to membership. A name present with a false
	// flag still makes the pattern known to the codeset.
	Patterns map[string]bool
}

// optionKey addresses one option column value of an entry.
type optionKey struct {
	column string
	locale language.Tag
}

// Entry is the immutable data of one code value.
type Entry struct {
	codesetID  string
	value      string
	names      map[language.Tag]string
	shortNames map[language.Tag]string
	options    map[optionKey]string
	patterns   map[string]struct{}
	sortKeys   map[language.Tag]int
}

// CodesetID returns the id of the codeset the entry belongs to.
func (e *Entry) CodesetID() string { return e.codesetID }

// Value returns the code value.
func (e *Entry) Value() string { return e.value }

// Name returns the name of the value in the given locale.
func (e *Entry) Name(locale language.Tag) (string, bool) {
	name, ok := e.names[locale]
	return name, ok
}

// ShortName returns the short name of the value in the given locale.
func (e *Entry) ShortName(locale language.Tag) (string, bool) {
	name, ok := e.shortNames[locale]
	return name, ok
}

// OptionalName returns the option column value in the given locale.
func (e *Entry) OptionalName(column string, locale language.Tag) (string, bool) {
	name, ok := e.options[optionKey{column: column, locale: locale}]
	return name, ok
}

// Options returns a copy of the option column values for the given locale.
func (e *Entry) Options(locale language.Tag) map[string]string {
	out := make(map[string]string)
	for k, v := range e.options {
		if k.locale == locale {
			out[k.column] = v
		}
	}
	return out
}

// Locales returns the locales the entry has names for, in no particular order.
func (e *Entry) Locales() []language.Tag {
	locales := make([]language.Tag, 0, len(e.names))
	for locale := range e.names {
		locales = append(locales, locale)
	}
	return locales
}

// InPattern reports whether the value is a member of the pattern. Pattern
// names compare case-insensitively.
func (e *Entry) InPattern(pattern string) bool {
	_, ok := e.patterns[foldPattern(pattern)]
	return ok
}

// sortKey returns the sort key of the value in the given locale.
func (e *Entry) sortKey(locale language.Tag) (int, bool) {
	key, ok := e.sortKeys[locale]
	return key, ok
}

// entryBuilder accumulates the rows of one value.
type entryBuilder struct {
	entry *Entry
}

func newEntryBuilder(codesetID, value string) *entryBuilder {
	return &entryBuilder{
		entry: &Entry{
			codesetID:  codesetID,
			value:      value,
			names:      make(map[language.Tag]string),
			shortNames: make(map[language.Tag]string),
			options:    make(map[optionKey]string),
			patterns:   make(map[string]struct{}),
			sortKeys:   make(map[language.Tag]int),
		},
	}
}

// add merges one row into the entry. Pattern flags are OR-ed across rows.
func (b *entryBuilder) add(row Row, locale language.Tag) error {
	e := b.entry
	if _, dup := e.names[locale]; dup {
		return dataError(e.codesetID, e.value, "locale %s supplied twice", locale)
	}

	e.names[locale] = row.Name
	e.shortNames[locale] = row.ShortName
	if row.SortOrder != nil {
		e.sortKeys[locale] = *row.SortOrder
	}
	for column, text := range row.Options {
		if column == "" {
			return dataError(e.codesetID, e.value, "empty option column name")
		}
		e.options[optionKey{column: column, locale: locale}] = text
	}
	for pattern, member := range row.Patterns {
		if member {
			e.patterns[foldPattern(pattern)] = struct{}{}
		}
	}
	return nil
}

// foldPattern normalises a pattern name for case-insensitive matching.
// A Caser keeps state, so each call gets its own.
func foldPattern(pattern string) string {
	return cases.Fold().String(pattern)
}
