package domain

import (
	"encoding/json"
	"testing"
)

func TestCodeDocument_FieldNames(t *testing.T) {
	doc := CodeDocument{
		ID:        DocumentID("0001", "01", "en"),
		Codeset:   "0001",
		Value:     "01",
		Locale:    "en",
		Name:      "Male",
		ShortName: "M",
		Options:   "0001-01-en",
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Failed to marshal CodeDocument: %v", err)
	}

	// The index mapping relies on the JSON names matching the field constants
	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Failed to unmarshal CodeDocument: %v", err)
	}

	expected := map[string]string{
		CodeFieldID:        "0001/01/en",
		CodeFieldCodeset:   "0001",
		CodeFieldValue:     "01",
		CodeFieldLocale:    "en",
		CodeFieldName:      "Male",
		CodeFieldShortName: "M",
		CodeFieldOptions:   "0001-01-en",
	}
	for field, want := range expected {
		if got := fields[field]; got != want {
			t.Errorf("Field %s: got %q, want %q", field, got, want)
		}
	}
	if len(fields) != len(expected) {
		t.Errorf("Expected %d fields, got %d", len(expected), len(fields))
	}
}

func TestDocumentID(t *testing.T) {
	if got := DocumentID("A", "b", "ja-JP"); got != "A/b/ja-JP" {
		t.Errorf("DocumentID = %q, want %q", got, "A/b/ja-JP")
	}
}
