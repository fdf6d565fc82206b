package codes

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func intPtr(i int) *int {
	return &i
}

// patternFlags builds the PATTERN1..PATTERN3 flags used by the fixtures.
func patternFlags(members ...string) map[string]bool {
	flags := map[string]bool{"PATTERN1": false, "PATTERN2": false, "PATTERN3": false}
	for _, m := range members {
		flags[m] = true
	}
	return flags
}

func nameRow(codesetID, value, locale string, sortOrder int, name, shortName, option01 string, patterns map[string]bool) Row {
	return Row{
		CodesetID: codesetID,
		Value:     value,
		Locale:    locale,
		SortOrder: intPtr(sortOrder),
		Name:      name,
		ShortName: shortName,
		Options: map[string]string{
			"OPTION01":        option01,
			"NAME_WITH_VALUE": value + ":" + name,
		},
		Patterns: patterns,
	}
}

// fixtureRows returns two codesets: "0001" (gender, ordered differently per
// locale) and "0002" (batch states split over PATTERN1 and PATTERN2).
func fixtureRows() []Row {
	p1 := patternFlags("PATTERN1")
	p2 := patternFlags("PATTERN2")
	return []Row{
		nameRow("0001", "01", "en", 2, "Male", "M", "0001-01-en", p1),
		nameRow("0001", "02", "en", 1, "Female", "F", "0001-02-en", p1),
		nameRow("0001", "01", "ja", 1, "男性", "男", "0001-01-ja", p1),
		nameRow("0001", "02", "ja", 2, "女性", "女", "0001-02-ja", p1),
		nameRow("0002", "01", "en", 1, "Initial State", "Initial", "0002-01-en", p1),
		nameRow("0002", "02", "en", 2, "Waiting For Batch Start", "Waiting", "0002-02-en", p1),
		nameRow("0002", "03", "en", 3, "Batch Running", "Running", "0002-03-en", p2),
		nameRow("0002", "04", "en", 4, "Batch Execute Completed Checked", "Completed", "0002-04-en", p2),
		nameRow("0002", "05", "en", 5, "Batch Result Checked", "Checked", "0002-05-en", p1),
		nameRow("0002", "01", "ja", 1, "初期状態", "初期", "0002-01-ja", p1),
		nameRow("0002", "02", "ja", 2, "処理開始待ち", "待ち", "0002-02-ja", p1),
		nameRow("0002", "03", "ja", 3, "処理実行中", "実行", "0002-03-ja", p2),
		nameRow("0002", "04", "ja", 4, "処理実行完了", "完了", "0002-04-ja", p2),
		nameRow("0002", "05", "ja", 5, "処理結果確認完了", "確認", "0002-05-ja", p1),
	}
}

// memoryLoader serves rows from memory and counts loader calls.
type memoryLoader struct {
	mu       sync.Mutex
	rows     []Row
	err      error
	gate     chan struct{}
	loads    atomic.Int64
	loadAlls atomic.Int64
}

func newMemoryLoader(rows []Row) *memoryLoader {
	return &memoryLoader{rows: rows}
}

func (l *memoryLoader) setRows(rows []Row) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = rows
}

func (l *memoryLoader) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *memoryLoader) Load(_ context.Context, codesetID string) ([]Row, error) {
	l.loads.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	var rows []Row
	for _, row := range l.rows {
		if row.CodesetID == codesetID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (l *memoryLoader) LoadAll(_ context.Context) ([]Row, error) {
	l.loadAlls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return append([]Row(nil), l.rows...), nil
}

var errSourceDown = errors.New("source down")

func mustCodeSets(t testing.TB, rows []Row) map[string]*CodeSet {
	t.Helper()
	sets, err := BuildCodeSets(rows)
	if err != nil {
		t.Fatalf("BuildCodeSets failed: %v", err)
	}
	return sets
}
