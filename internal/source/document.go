package source

import (
	"fmt"
	"slices"
	"sort"

	"github.com/sha1n/mcp-codemaster-server/internal/codes"
)

// Document is the on-disk form of code master data.
//
//	codesets:
//	  "0001":
//	    patterns: [PATTERN1, PATTERN2]
//	    values:
//	      - value: "01"
//	        patterns: [PATTERN1]
//	        names:
//	          - locale: en
//	            sort_order: 1
//	            name: Male
//	            short_name: M
//	            options: {OPTION01: male}
type Document struct {
	Codesets map[string]DocumentCodeset `yaml:"codesets" json:"codesets"`
}

// DocumentCodeset declares the patterns of a codeset and its values.
// Patterns listed here but on no value are known but empty.
type DocumentCodeset struct {
	Patterns []string        `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Values   []DocumentValue `yaml:"values" json:"values"`
}

// DocumentValue is one code value with its per-locale names.
type DocumentValue struct {
	Value    string         `yaml:"value" json:"value"`
	Patterns []string       `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Names    []DocumentName `yaml:"names" json:"names"`
}

// DocumentName holds the names of a value in one locale.
type DocumentName struct {
	Locale    string            `yaml:"locale" json:"locale"`
	SortOrder *int              `yaml:"sort_order,omitempty" json:"sort_order,omitempty"`
	Name      string            `yaml:"name" json:"name"`
	ShortName string            `yaml:"short_name,omitempty" json:"short_name,omitempty"`
	Options   map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

// CodesetIDs returns the codeset ids in the document, sorted.
func (d *Document) CodesetIDs() []string {
	ids := make([]string, 0, len(d.Codesets))
	for id := range d.Codesets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Rows flattens the document into loader rows, codesets in id order.
func (d *Document) Rows() []codes.Row {
	var rows []codes.Row
	for _, id := range d.CodesetIDs() {
		rows = append(rows, d.codesetRows(id)...)
	}
	return rows
}

// codesetRows returns the rows of a single codeset; none if it is absent.
func (d *Document) codesetRows(id string) []codes.Row {
	cs, ok := d.Codesets[id]
	if !ok {
		return nil
	}

	var rows []codes.Row
	for _, v := range cs.Values {
		flags := make(map[string]bool, len(cs.Patterns)+len(v.Patterns))
		for _, p := range cs.Patterns {
			flags[p] = false
		}
		for _, p := range v.Patterns {
			flags[p] = true
		}
		for _, n := range v.Names {
			rows = append(rows, codes.Row{
				CodesetID: id,
				Value:     v.Value,
				Locale:    n.Locale,
				SortOrder: n.SortOrder,
				Name:      n.Name,
				ShortName: n.ShortName,
				Options:   n.Options,
				Patterns:  flags,
			})
		}
	}
	return rows
}

// NewDocument groups rows back into a document. Values keep the order of
// their first row.
func NewDocument(rows []codes.Row) (*Document, error) {
	doc := &Document{Codesets: make(map[string]DocumentCodeset)}
	type valueIndex struct {
		codeset string
		value   string
	}
	index := make(map[valueIndex]int)
	patterns := make(map[string]map[string]struct{})

	for _, row := range rows {
		if row.CodesetID == "" || row.Value == "" {
			return nil, fmt.Errorf("row without codeset id or value: %+v", row)
		}
		cs := doc.Codesets[row.CodesetID]
		if patterns[row.CodesetID] == nil {
			patterns[row.CodesetID] = make(map[string]struct{})
		}

		key := valueIndex{row.CodesetID, row.Value}
		i, ok := index[key]
		if !ok {
			i = len(cs.Values)
			index[key] = i
			cs.Values = append(cs.Values, DocumentValue{Value: row.Value})
		}
		v := &cs.Values[i]

		for p, member := range row.Patterns {
			patterns[row.CodesetID][p] = struct{}{}
			if member && !slices.Contains(v.Patterns, p) {
				v.Patterns = append(v.Patterns, p)
			}
		}
		sort.Strings(v.Patterns)
		v.Names = append(v.Names, DocumentName{
			Locale:    row.Locale,
			SortOrder: row.SortOrder,
			Name:      row.Name,
			ShortName: row.ShortName,
			Options:   row.Options,
		})
		doc.Codesets[row.CodesetID] = cs
	}

	for id, set := range patterns {
		cs := doc.Codesets[id]
		cs.Patterns = make([]string, 0, len(set))
		for p := range set {
			cs.Patterns = append(cs.Patterns, p)
		}
		sort.Strings(cs.Patterns)
		doc.Codesets[id] = cs
	}
	return doc, nil
}
