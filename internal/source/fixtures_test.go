package source

import (
	"os"
	"path/filepath"
	"testing"
)

const fixtureYAML = `codesets:
  "0001":
    patterns: [PATTERN1, PATTERN2]
    values:
      - value: "01"
        patterns: [PATTERN1]
        names:
          - locale: en
            sort_order: 2
            name: Male
            short_name: M
            options: {OPTION01: 0001-01-en}
          - locale: ja
            sort_order: 1
            name: 男性
            short_name: 男
            options: {OPTION01: 0001-01-ja}
      - value: "02"
        patterns: [PATTERN1]
        names:
          - locale: en
            sort_order: 1
            name: Female
            short_name: F
            options: {OPTION01: 0001-02-en}
          - locale: ja
            sort_order: 2
            name: 女性
            short_name: 女
            options: {OPTION01: 0001-02-ja}
  "0002":
    values:
      - value: "01"
        patterns: [WEB]
        names:
          - locale: en
            sort_order: 1
            name: Initial State
      - value: "02"
        names:
          - locale: en
            name: Unsorted
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codes.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}
