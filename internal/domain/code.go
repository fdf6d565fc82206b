package domain

// CodeDocument represents one code value in one locale.
// It is the primary data structure stored in the Bleve search index.
type CodeDocument struct {
	// ID combines codeset id, value and locale.
	// Format: "0001/01/en"
	ID string `json:"id"`

	// Codeset is the codeset id.
	Codeset string `json:"codeset"`

	// Value is the code value within the codeset.
	Value string `json:"value"`

	// Locale is the BCP 47 tag of the names.
	// Example: "en", "ja"
	Locale string `json:"locale"`

	// Name is the display name in Locale.
	Name string `json:"name"`

	// ShortName is the abbreviated display name in Locale.
	ShortName string `json:"short_name"`

	// Options holds the option column texts, space separated, for full-text matching.
	Options string `json:"options"`
}

// DocumentID returns the index document id of a value in a locale.
func DocumentID(codeset, value, locale string) string {
	return codeset + "/" + value + "/" + locale
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	CodeFieldID        = "id"
	CodeFieldCodeset   = "codeset"
	CodeFieldValue     = "value"
	CodeFieldLocale    = "locale"
	CodeFieldName      = "name"
	CodeFieldShortName = "short_name"
	CodeFieldOptions   = "options"
)
