package codes

import (
	"slices"
	"sort"

	"golang.org/x/text/language"
)

// CodeSet is the immutable view over all entries of one codeset id.
// Orderings are computed once at construction, so a CodeSet is safe for
// concurrent use without locking.
type CodeSet struct {
	id      string
	entries []*Entry
	byValue map[string]*Entry

	// patterns holds every folded pattern name mentioned by the source rows.
	patterns map[string]struct{}
	// columns holds every option column name mentioned by the source rows.
	columns map[string]struct{}

	// ordered holds, per locale, the values sorted by sort key.
	ordered map[language.Tag][]*Entry
}

// NewCodeSet builds a code set from the rows of a single codeset.
func NewCodeSet(id string, rows []Row) (*CodeSet, error) {
	if id == "" {
		return nil, dataError(id, "", "empty codeset id")
	}

	cs := &CodeSet{
		id:       id,
		byValue:  make(map[string]*Entry),
		patterns: make(map[string]struct{}),
		columns:  make(map[string]struct{}),
		ordered:  make(map[language.Tag][]*Entry),
	}

	builders := make(map[string]*entryBuilder)
	for _, row := range rows {
		if row.CodesetID != id {
			return nil, dataError(id, row.Value, "row belongs to codeset %q", row.CodesetID)
		}
		if row.Value == "" {
			return nil, dataError(id, row.Value, "empty value")
		}
		if row.Locale == "" {
			return nil, dataError(id, row.Value, "empty locale")
		}
		locale, err := ParseLocale(row.Locale)
		if err != nil {
			return nil, dataError(id, row.Value, "invalid locale %q: %v", row.Locale, err)
		}

		b, ok := builders[row.Value]
		if !ok {
			b = newEntryBuilder(id, row.Value)
			builders[row.Value] = b
			cs.entries = append(cs.entries, b.entry)
			cs.byValue[row.Value] = b.entry
		}
		if err := b.add(row, locale); err != nil {
			return nil, err
		}

		for pattern := range row.Patterns {
			cs.patterns[foldPattern(pattern)] = struct{}{}
		}
		for column := range row.Options {
			cs.columns[column] = struct{}{}
		}
	}

	cs.buildOrderings()
	return cs, nil
}

// BuildCodeSets groups rows by codeset id and builds one CodeSet per id.
func BuildCodeSets(rows []Row) (map[string]*CodeSet, error) {
	grouped := make(map[string][]Row)
	for _, row := range rows {
		if row.CodesetID == "" {
			return nil, dataError(row.CodesetID, row.Value, "empty codeset id")
		}
		grouped[row.CodesetID] = append(grouped[row.CodesetID], row)
	}

	sets := make(map[string]*CodeSet, len(grouped))
	for id, group := range grouped {
		cs, err := NewCodeSet(id, group)
		if err != nil {
			return nil, err
		}
		sets[id] = cs
	}
	return sets, nil
}

// buildOrderings sorts, per locale, the entries that have a sort key there.
// Ties keep insertion order.
func (cs *CodeSet) buildOrderings() {
	for _, e := range cs.entries {
		for locale := range e.names {
			if _, ok := cs.ordered[locale]; !ok {
				cs.ordered[locale] = nil
			}
			if _, ok := e.sortKey(locale); ok {
				cs.ordered[locale] = append(cs.ordered[locale], e)
			}
		}
	}
	for locale, list := range cs.ordered {
		sort.SliceStable(list, func(i, j int) bool {
			ki, _ := list[i].sortKey(locale)
			kj, _ := list[j].sortKey(locale)
			return ki < kj
		})
	}
}

// ID returns the codeset id.
func (cs *CodeSet) ID() string { return cs.id }

// Len returns the number of values in the code set.
func (cs *CodeSet) Len() int { return len(cs.entries) }

// Entries returns the entries in insertion order.
func (cs *CodeSet) Entries() []*Entry {
	return slices.Clone(cs.entries)
}

// Entry returns the entry for a value.
func (cs *CodeSet) Entry(value string) (*Entry, bool) {
	e, ok := cs.byValue[value]
	return e, ok
}

// Locales returns the locales that have data in the code set, sorted by tag.
func (cs *CodeSet) Locales() []language.Tag {
	locales := make([]language.Tag, 0, len(cs.ordered))
	for locale := range cs.ordered {
		locales = append(locales, locale)
	}
	sort.Slice(locales, func(i, j int) bool {
		return locales[i].String() < locales[j].String()
	})
	return locales
}

// Patterns returns the folded pattern names known to the code set, sorted.
func (cs *CodeSet) Patterns() []string {
	return sortedKeys(cs.patterns)
}

// OptionColumns returns the option column names used by the code set, sorted.
func (cs *CodeSet) OptionColumns() []string {
	return sortedKeys(cs.columns)
}

// HasPattern reports whether the pattern name is used anywhere in the code set.
func (cs *CodeSet) HasPattern(pattern string) bool {
	_, ok := cs.patterns[foldPattern(pattern)]
	return ok
}

// Contains reports whether the value exists, regardless of locale and pattern.
func (cs *CodeSet) Contains(value string) bool {
	_, ok := cs.byValue[value]
	return ok
}

// ContainsInPattern reports whether the value exists and is a member of the pattern.
func (cs *CodeSet) ContainsInPattern(pattern, value string) (bool, error) {
	if !cs.HasPattern(pattern) {
		return false, cs.lookupError("contains", value, pattern, "", language.Und, ErrUnknownPattern)
	}
	e, ok := cs.byValue[value]
	if !ok {
		return false, nil
	}
	return e.InPattern(pattern), nil
}

// Name returns the name of the value in the locale.
func (cs *CodeSet) Name(value string, locale language.Tag) (string, error) {
	e, err := cs.entryFor("name", value, locale)
	if err != nil {
		return "", err
	}
	name, ok := e.Name(locale)
	if !ok {
		return "", cs.lookupError("name", value, "", "", locale, ErrUnknownLocaleData)
	}
	return name, nil
}

// ShortName returns the short name of the value in the locale.
func (cs *CodeSet) ShortName(value string, locale language.Tag) (string, error) {
	e, err := cs.entryFor("short name", value, locale)
	if err != nil {
		return "", err
	}
	name, ok := e.ShortName(locale)
	if !ok {
		return "", cs.lookupError("short name", value, "", "", locale, ErrUnknownLocaleData)
	}
	return name, nil
}

// OptionalName returns the option column value of the value in the locale.
// A column that no entry defines fails with ErrUnknownOptionColumn; a column
// the value lacks in the locale fails with ErrUnknownLocaleData.
func (cs *CodeSet) OptionalName(value, column string, locale language.Tag) (string, error) {
	e, err := cs.entryFor("optional name", value, locale)
	if err != nil {
		return "", err
	}
	if _, ok := cs.columns[column]; !ok {
		return "", cs.lookupError("optional name", value, "", column, locale, ErrUnknownOptionColumn)
	}
	name, ok := e.OptionalName(column, locale)
	if !ok {
		return "", cs.lookupError("optional name", value, "", column, locale, ErrUnknownLocaleData)
	}
	return name, nil
}

// Values returns the values ordered for the locale.
func (cs *CodeSet) Values(locale language.Tag) ([]string, error) {
	list, ok := cs.ordered[locale]
	if !ok {
		return nil, cs.lookupError("values", "", "", "", locale, ErrUnknownLocaleData)
	}
	return valuesOf(list, nil), nil
}

// ValuesInPattern returns the values of the pattern ordered for the locale.
// It is always a subsequence of Values for the same locale.
func (cs *CodeSet) ValuesInPattern(pattern string, locale language.Tag) ([]string, error) {
	if !cs.HasPattern(pattern) {
		return nil, cs.lookupError("values", "", pattern, "", locale, ErrUnknownPattern)
	}
	list, ok := cs.ordered[locale]
	if !ok {
		return nil, cs.lookupError("values", "", pattern, "", locale, ErrUnknownLocaleData)
	}
	return valuesOf(list, func(e *Entry) bool { return e.InPattern(pattern) }), nil
}

func (cs *CodeSet) entryFor(op, value string, locale language.Tag) (*Entry, error) {
	e, ok := cs.byValue[value]
	if !ok {
		return nil, cs.lookupError(op, value, "", "", locale, ErrUnknownValue)
	}
	return e, nil
}

func (cs *CodeSet) lookupError(op, value, pattern, column string, locale language.Tag, err error) error {
	return &LookupError{
		Op:        op,
		CodesetID: cs.id,
		Value:     value,
		Pattern:   pattern,
		Column:    column,
		Locale:    locale,
		Err:       err,
	}
}

func valuesOf(list []*Entry, keep func(*Entry) bool) []string {
	values := make([]string, 0, len(list))
	for _, e := range list {
		if keep == nil || keep(e) {
			values = append(values, e.value)
		}
	}
	return values
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
