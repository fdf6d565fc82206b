// Package search keeps a full-text index over the names of the loaded code
// values so callers can find a value without knowing its codeset.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"github.com/sha1n/mcp-codemaster-server/internal/domain"
)

const (
	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 500

	// DefaultMaxResults is used when a query names no limit.
	DefaultMaxResults = 20
)

// ErrNotBuilt is returned by Search before the first Rebuild.
var ErrNotBuilt = errors.New("search index not built")

// CreateIndexMapping creates the Bleve index mapping for code documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Names and options - analyzed for full-text search
	for _, field := range []string{domain.CodeFieldName, domain.CodeFieldShortName, domain.CodeFieldOptions} {
		text := bleve.NewTextFieldMapping()
		text.Analyzer = standard.Name
		text.Store = true
		text.IncludeTermVectors = true
		docMapping.AddFieldMappingsAt(field, text)
	}

	// Identity - keyword (not analyzed), stored for retrieval
	for _, field := range []string{domain.CodeFieldCodeset, domain.CodeFieldValue, domain.CodeFieldLocale} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		kw.Store = true
		docMapping.AddFieldMappingsAt(field, kw)
	}

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.CodeFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// Documents flattens code sets into one document per value and locale.
func Documents(sets []*codes.CodeSet) []domain.CodeDocument {
	var docs []domain.CodeDocument
	for _, cs := range sets {
		for _, e := range cs.Entries() {
			for _, locale := range e.Locales() {
				name, _ := e.Name(locale)
				shortName, _ := e.ShortName(locale)
				tag := locale.String()
				docs = append(docs, domain.CodeDocument{
					ID:        domain.DocumentID(cs.ID(), e.Value(), tag),
					Codeset:   cs.ID(),
					Value:     e.Value(),
					Locale:    tag,
					Name:      name,
					ShortName: shortName,
					Options:   joinOptions(e.Options(locale)),
				})
			}
		}
	}
	return docs
}

func joinOptions(options map[string]string) string {
	columns := make([]string, 0, len(options))
	for column := range options {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	texts := make([]string, 0, len(columns))
	for _, column := range columns {
		if text := options[column]; text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, " ")
}

// Index is an in-memory Bleve index that is rebuilt as a whole whenever the
// code data is reloaded.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
	docs  uint64
}

// NewIndex creates an empty, unbuilt index.
func NewIndex() *Index {
	return &Index{}
}

// Rebuild indexes the code sets into a fresh in-memory index and swaps it in.
// Searches running against the previous index finish before it is closed.
func (x *Index) Rebuild(ctx context.Context, sets []*codes.CodeSet) (count int, err error) {
	index, err := bleve.NewMemOnly(CreateIndexMapping())
	if err != nil {
		return 0, fmt.Errorf("failed to create index: %w", err)
	}

	batch := index.NewBatch()
	for _, doc := range Documents(sets) {
		if err := ctx.Err(); err != nil {
			_ = index.Close()
			return count, err
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			_ = index.Close()
			return count, fmt.Errorf("failed to index %s: %w", doc.ID, err)
		}
		if batch.Size() >= MaxBatchSize {
			if err := index.Batch(batch); err != nil {
				_ = index.Close()
				return count, fmt.Errorf("batch index failed: %w", err)
			}
			count += batch.Size()
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			_ = index.Close()
			return count, fmt.Errorf("final batch index failed: %w", err)
		}
		count += batch.Size()
	}

	x.mu.Lock()
	previous := x.index
	x.index = index
	x.docs = uint64(count)
	x.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return count, nil
}

// DocCount returns the number of documents in the current index.
func (x *Index) DocCount() uint64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.docs
}

// Close releases the current index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.index == nil {
		return nil
	}
	err := x.index.Close()
	x.index = nil
	x.docs = 0
	return err
}

// Query describes a search.
type Query struct {
	Text    string
	Codeset string
	Locale  string
	Limit   int
}

// Hit is one matching value in one locale.
type Hit struct {
	Codeset   string   `json:"codeset"`
	Value     string   `json:"value"`
	Locale    string   `json:"locale"`
	Name      string   `json:"name"`
	ShortName string   `json:"short_name,omitempty"`
	Score     float64  `json:"score"`
	Fragments []string `json:"fragments,omitempty"`
}

// Result is the outcome of a search.
type Result struct {
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Search runs the query against the current index.
func (x *Index) Search(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, errors.New("query cannot be empty")
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.index == nil {
		return nil, ErrNotBuilt
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	req := bleve.NewSearchRequest(buildQuery(q))
	req.Size = limit
	req.Fields = []string{domain.CodeFieldCodeset, domain.CodeFieldValue, domain.CodeFieldLocale, domain.CodeFieldName, domain.CodeFieldShortName}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField(domain.CodeFieldName)
	req.Highlight.AddField(domain.CodeFieldOptions)

	results, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := &Result{Total: results.Total, Hits: make([]Hit, 0, len(results.Hits))}
	for _, hit := range results.Hits {
		h := Hit{Score: hit.Score}
		h.Codeset, _ = hit.Fields[domain.CodeFieldCodeset].(string)
		h.Value, _ = hit.Fields[domain.CodeFieldValue].(string)
		h.Locale, _ = hit.Fields[domain.CodeFieldLocale].(string)
		h.Name, _ = hit.Fields[domain.CodeFieldName].(string)
		h.ShortName, _ = hit.Fields[domain.CodeFieldShortName].(string)
		for _, field := range []string{domain.CodeFieldName, domain.CodeFieldOptions} {
			h.Fragments = append(h.Fragments, hit.Fragments[field]...)
		}
		out.Hits = append(out.Hits, h)
	}
	return out, nil
}

// buildQuery matches the text against names, short names and options, or
// exactly against the value, then narrows by codeset and locale.
func buildQuery(q Query) query.Query {
	nameQuery := bleve.NewMatchQuery(q.Text)
	nameQuery.SetField(domain.CodeFieldName)
	nameQuery.SetBoost(3.0)

	shortQuery := bleve.NewMatchQuery(q.Text)
	shortQuery.SetField(domain.CodeFieldShortName)
	shortQuery.SetBoost(2.0)

	optionsQuery := bleve.NewMatchQuery(q.Text)
	optionsQuery.SetField(domain.CodeFieldOptions)

	valueQuery := bleve.NewTermQuery(strings.TrimSpace(q.Text))
	valueQuery.SetField(domain.CodeFieldValue)
	valueQuery.SetBoost(5.0)

	searchQuery := bleve.NewDisjunctionQuery(nameQuery, shortQuery, optionsQuery, valueQuery)

	if q.Codeset == "" && q.Locale == "" {
		return searchQuery
	}

	must := []query.Query{searchQuery}
	if q.Codeset != "" {
		codesetQuery := bleve.NewTermQuery(q.Codeset)
		codesetQuery.SetField(domain.CodeFieldCodeset)
		must = append(must, codesetQuery)
	}
	if q.Locale != "" {
		locale := q.Locale
		if tag, err := codes.ParseLocale(locale); err == nil {
			locale = tag.String()
		}
		localeQuery := bleve.NewTermQuery(locale)
		localeQuery.SetField(domain.CodeFieldLocale)
		must = append(must, localeQuery)
	}
	return bleve.NewConjunctionQuery(must...)
}
