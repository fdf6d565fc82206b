package codes

import (
	"errors"
	"slices"
	"testing"

	"golang.org/x/text/language"
)

func TestCodeSet_ValuesOrderedBySortKey(t *testing.T) {
	sets := mustCodeSets(t, fixtureRows())

	tests := []struct {
		codeset string
		locale  language.Tag
		want    []string
	}{
		{"0001", language.English, []string{"02", "01"}},
		{"0001", language.Japanese, []string{"01", "02"}},
		{"0002", language.English, []string{"01", "02", "03", "04", "05"}},
		{"0002", language.Japanese, []string{"01", "02", "03", "04", "05"}},
	}

	for _, tt := range tests {
		t.Run(tt.codeset+"/"+tt.locale.String(), func(t *testing.T) {
			got, err := sets[tt.codeset].Values(tt.locale)
			if err != nil {
				t.Fatalf("Values failed: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCodeSet_ValuesInPattern(t *testing.T) {
	sets := mustCodeSets(t, fixtureRows())

	tests := []struct {
		codeset string
		pattern string
		locale  language.Tag
		want    []string
	}{
		{"0001", "PATTERN1", language.English, []string{"02", "01"}},
		{"0001", "PATTERN2", language.English, []string{}},
		{"0001", "PATTERN3", language.English, []string{}},
		{"0002", "PATTERN1", language.English, []string{"01", "02", "05"}},
		{"0002", "PATTERN2", language.English, []string{"03", "04"}},
		{"0002", "PATTERN3", language.English, []string{}},
		{"0001", "PATTERN1", language.Japanese, []string{"01", "02"}},
		{"0002", "pattern2", language.Japanese, []string{"03", "04"}},
	}

	for _, tt := range tests {
		t.Run(tt.codeset+"/"+tt.pattern+"/"+tt.locale.String(), func(t *testing.T) {
			got, err := sets[tt.codeset].ValuesInPattern(tt.pattern, tt.locale)
			if err != nil {
				t.Fatalf("ValuesInPattern failed: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCodeSet_PatternValuesAreSubsequence(t *testing.T) {
	sets := mustCodeSets(t, fixtureRows())

	for id, cs := range sets {
		for _, locale := range cs.Locales() {
			all, err := cs.Values(locale)
			if err != nil {
				t.Fatalf("Values(%s, %s) failed: %v", id, locale, err)
			}
			for _, pattern := range cs.Patterns() {
				sub, err := cs.ValuesInPattern(pattern, locale)
				if err != nil {
					t.Fatalf("ValuesInPattern(%s, %s, %s) failed: %v", id, pattern, locale, err)
				}
				var want []string
				for _, v := range all {
					if e, _ := cs.Entry(v); e.InPattern(pattern) {
						want = append(want, v)
					}
				}
				if len(want) != len(sub) || (len(want) > 0 && !slices.Equal(want, sub)) {
					t.Errorf("%s/%s/%s: expected subsequence %v, got %v", id, pattern, locale, want, sub)
				}
			}
		}
	}
}

func TestCodeSet_ValuesUnknownPattern(t *testing.T) {
	cs := mustCodeSets(t, fixtureRows())["0002"]

	// Pattern is checked before the locale
	_, err := cs.ValuesInPattern("PATTERN4", language.Chinese)
	if !errors.Is(err, ErrUnknownPattern) {
		t.Errorf("Expected ErrUnknownPattern, got %v", err)
	}
}

func TestCodeSet_ValuesUnknownLocale(t *testing.T) {
	cs := mustCodeSets(t, fixtureRows())["0001"]

	if _, err := cs.Values(language.Chinese); !errors.Is(err, ErrUnknownLocaleData) {
		t.Errorf("Expected ErrUnknownLocaleData from Values, got %v", err)
	}
	if _, err := cs.ValuesInPattern("PATTERN1", language.Chinese); !errors.Is(err, ErrUnknownLocaleData) {
		t.Errorf("Expected ErrUnknownLocaleData from ValuesInPattern, got %v", err)
	}
}

func TestCodeSet_Contains(t *testing.T) {
	sets := mustCodeSets(t, fixtureRows())

	tests := []struct {
		codeset string
		value   string
		want    bool
	}{
		{"0001", "01", true},
		{"0001", "02", true},
		{"0001", "00", false},
		{"0001", "03", false},
		{"0002", "05", true},
		{"0002", "06", false},
	}

	for _, tt := range tests {
		if got := sets[tt.codeset].Contains(tt.value); got != tt.want {
			t.Errorf("Contains(%s, %s): expected %v, got %v", tt.codeset, tt.value, tt.want, got)
		}
	}
}

func TestCodeSet_ContainsInPattern(t *testing.T) {
	cs := mustCodeSets(t, fixtureRows())["0002"]

	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"PATTERN1", "01", true},
		{"PATTERN1", "02", true},
		{"PATTERN1", "05", true},
		{"PATTERN2", "03", true},
		{"PATTERN2", "04", true},
		{"PATTERN1", "03", false},
		{"PATTERN1", "04", false},
		{"PATTERN2", "01", false},
		{"PATTERN3", "01", false},
		{"Pattern2", "03", true},
		{"PATTERN1", "99", false},
	}

	for _, tt := range tests {
		got, err := cs.ContainsInPattern(tt.pattern, tt.value)
		if err != nil {
			t.Errorf("ContainsInPattern(%s, %s) failed: %v", tt.pattern, tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ContainsInPattern(%s, %s): expected %v, got %v", tt.pattern, tt.value, tt.want, got)
		}
	}
}

func TestCodeSet_ContainsInUnknownPattern(t *testing.T) {
	cs := mustCodeSets(t, fixtureRows())["0002"]

	// Fails even when the value does not exist
	for _, value := range []string{"01", "99"} {
		_, err := cs.ContainsInPattern("PATTERN4", value)
		if !errors.Is(err, ErrUnknownPattern) {
			t.Errorf("Expected ErrUnknownPattern for value %s, got %v", value, err)
		}
	}
}

func TestCodeSet_Names(t *testing.T) {
	sets := mustCodeSets(t, fixtureRows())

	tests := []struct {
		name    string
		lookup  func() (string, error)
		want    string
		wantErr error
	}{
		{"name en", func() (string, error) { return sets["0001"].Name("01", language.English) }, "Male", nil},
		{"name ja", func() (string, error) { return sets["0002"].Name("03", language.Japanese) }, "処理実行中", nil},
		{"short name en", func() (string, error) { return sets["0002"].ShortName("03", language.English) }, "Running", nil},
		{"short name ja", func() (string, error) { return sets["0001"].ShortName("01", language.Japanese) }, "男", nil},
		{"option en", func() (string, error) { return sets["0001"].OptionalName("01", "OPTION01", language.English) }, "0001-01-en", nil},
		{"option ja", func() (string, error) { return sets["0002"].OptionalName("03", "OPTION01", language.Japanese) }, "0002-03-ja", nil},
		{"name unknown value", func() (string, error) { return sets["0001"].Name("09", language.English) }, "", ErrUnknownValue},
		{"name unknown locale", func() (string, error) { return sets["0001"].Name("01", language.Chinese) }, "", ErrUnknownLocaleData},
		{"short name unknown value", func() (string, error) { return sets["0001"].ShortName("09", language.English) }, "", ErrUnknownValue},
		{"short name unknown locale", func() (string, error) { return sets["0001"].ShortName("01", language.Chinese) }, "", ErrUnknownLocaleData},
		{"option unknown value", func() (string, error) { return sets["0001"].OptionalName("09", "OPTION01", language.English) }, "", ErrUnknownValue},
		{"option unknown column", func() (string, error) { return sets["0001"].OptionalName("01", "OPTION99", language.English) }, "", ErrUnknownOptionColumn},
		{"option unknown locale", func() (string, error) { return sets["0001"].OptionalName("01", "OPTION01", language.Chinese) }, "", ErrUnknownLocaleData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.lookup()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCodeSet_OptionMissingOnOneValue(t *testing.T) {
	rows := []Row{
		{CodesetID: "X", Value: "1", Locale: "en", SortOrder: intPtr(1), Name: "One", Options: map[string]string{"NOTE": "first"}},
		{CodesetID: "X", Value: "2", Locale: "en", SortOrder: intPtr(2), Name: "Two"},
	}
	cs := mustCodeSets(t, rows)["X"]

	if _, err := cs.OptionalName("2", "NOTE", language.English); !errors.Is(err, ErrUnknownLocaleData) {
		t.Errorf("Expected ErrUnknownLocaleData, got %v", err)
	}
	got, err := cs.OptionalName("1", "NOTE", language.English)
	if err != nil || got != "first" {
		t.Errorf("Expected 'first', got %q (err %v)", got, err)
	}
}

func TestCodeSet_EmptyNameIsData(t *testing.T) {
	rows := []Row{
		{CodesetID: "X", Value: "1", Locale: "en", SortOrder: intPtr(1), Name: "", Options: map[string]string{"NOTE": ""}},
	}
	cs := mustCodeSets(t, rows)["X"]

	name, err := cs.Name("1", language.English)
	if err != nil || name != "" {
		t.Errorf("Expected empty name without error, got %q (err %v)", name, err)
	}
	note, err := cs.OptionalName("1", "NOTE", language.English)
	if err != nil || note != "" {
		t.Errorf("Expected empty option without error, got %q (err %v)", note, err)
	}
}

func TestCodeSet_StableOnTies(t *testing.T) {
	rows := []Row{
		{CodesetID: "T", Value: "c", Locale: "en", SortOrder: intPtr(1), Name: "C"},
		{CodesetID: "T", Value: "a", Locale: "en", SortOrder: intPtr(1), Name: "A"},
		{CodesetID: "T", Value: "z", Locale: "en", SortOrder: intPtr(0), Name: "Z"},
		{CodesetID: "T", Value: "b", Locale: "en", SortOrder: intPtr(1), Name: "B"},
	}
	cs := mustCodeSets(t, rows)["T"]

	got, err := cs.Values(language.English)
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	want := []string{"z", "c", "a", "b"}
	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCodeSet_ValuesWithoutSortKeyExcluded(t *testing.T) {
	rows := []Row{
		{CodesetID: "S", Value: "1", Locale: "en", SortOrder: intPtr(2), Name: "One"},
		{CodesetID: "S", Value: "2", Locale: "en", Name: "Two"},
		{CodesetID: "S", Value: "3", Locale: "en", SortOrder: intPtr(1), Name: "Three"},
		{CodesetID: "S", Value: "2", Locale: "fr", Name: "Deux"},
	}
	cs := mustCodeSets(t, rows)["S"]

	got, err := cs.Values(language.English)
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	if !slices.Equal(got, []string{"3", "1"}) {
		t.Errorf("Expected [3 1], got %v", got)
	}

	// The locale has data, so the list is empty rather than an error
	got, err = cs.Values(language.French)
	if err != nil {
		t.Fatalf("Values(fr) failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no values for fr, got %v", got)
	}

	// Names stay resolvable
	if name, err := cs.Name("2", language.English); err != nil || name != "Two" {
		t.Errorf("Expected name 'Two', got %q (err %v)", name, err)
	}
}

func TestCodeSet_ReturnedValuesAreCopies(t *testing.T) {
	cs := mustCodeSets(t, fixtureRows())["0001"]

	first, _ := cs.Values(language.English)
	first[0] = "mutated"

	second, _ := cs.Values(language.English)
	if second[0] != "02" {
		t.Errorf("Expected internal ordering to be unaffected, got %v", second)
	}
}

func TestCodeSet_PatternFlagsOredAcrossLocales(t *testing.T) {
	rows := []Row{
		{CodesetID: "P", Value: "1", Locale: "en", SortOrder: intPtr(1), Patterns: map[string]bool{"WEB": true}},
		{CodesetID: "P", Value: "1", Locale: "ja", SortOrder: intPtr(1), Patterns: map[string]bool{"WEB": false, "BATCH": false}},
	}
	cs := mustCodeSets(t, rows)["P"]

	in, err := cs.ContainsInPattern("web", "1")
	if err != nil || !in {
		t.Errorf("Expected value in WEB, got %v (err %v)", in, err)
	}
	in, err = cs.ContainsInPattern("BATCH", "1")
	if err != nil || in {
		t.Errorf("Expected value not in BATCH, got %v (err %v)", in, err)
	}
	if !slices.Equal(cs.Patterns(), []string{"batch", "web"}) {
		t.Errorf("Expected folded patterns [batch web], got %v", cs.Patterns())
	}
}

func TestNewCodeSet_InvalidData(t *testing.T) {
	tests := []struct {
		name string
		id   string
		rows []Row
	}{
		{"empty id", "", nil},
		{"empty value", "A", []Row{{CodesetID: "A", Locale: "en"}}},
		{"empty locale", "A", []Row{{CodesetID: "A", Value: "1"}}},
		{"bad locale", "A", []Row{{CodesetID: "A", Value: "1", Locale: "not a locale!"}}},
		{"foreign row", "A", []Row{{CodesetID: "B", Value: "1", Locale: "en"}}},
		{"duplicate locale", "A", []Row{
			{CodesetID: "A", Value: "1", Locale: "en", Options: map[string]string{"OPT": "x"}},
			{CodesetID: "A", Value: "1", Locale: "en", Options: map[string]string{"OPT": "y"}},
		}},
		{"empty option column", "A", []Row{{CodesetID: "A", Value: "1", Locale: "en", Options: map[string]string{"": "x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCodeSet(tt.id, tt.rows)
			if !errors.Is(err, ErrInvalidData) {
				t.Errorf("Expected ErrInvalidData, got %v", err)
			}
		})
	}
}

func TestBuildCodeSets_GroupsById(t *testing.T) {
	sets := mustCodeSets(t, fixtureRows())

	if len(sets) != 2 {
		t.Fatalf("Expected 2 code sets, got %d", len(sets))
	}
	if sets["0001"].Len() != 2 || sets["0002"].Len() != 5 {
		t.Errorf("Unexpected sizes: 0001=%d 0002=%d", sets["0001"].Len(), sets["0002"].Len())
	}
	if !slices.Equal(sets["0001"].OptionColumns(), []string{"NAME_WITH_VALUE", "OPTION01"}) {
		t.Errorf("Unexpected option columns: %v", sets["0001"].OptionColumns())
	}
	if !slices.Equal(sets["0002"].Locales(), []language.Tag{language.English, language.Japanese}) {
		t.Errorf("Unexpected locales: %v", sets["0002"].Locales())
	}

	if _, err := BuildCodeSets([]Row{{Value: "1", Locale: "en"}}); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Expected ErrInvalidData for empty codeset id, got %v", err)
	}
}

func TestLookupError_Message(t *testing.T) {
	cs := mustCodeSets(t, fixtureRows())["0001"]

	_, err := cs.OptionalName("01", "OPTION01", language.Chinese)
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("Expected *LookupError, got %T", err)
	}
	want := "optional name: no data for locale (codeset=0001, value=01, column=OPTION01, locale=zh)"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
