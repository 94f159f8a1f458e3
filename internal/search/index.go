// Package search maintains a full-text index over every published pick
// so stocks can be found by code, name or industry across dates.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/pkg/logger"
)

// Hit is one indexed pick. Date is the YYYYMMDD key of the file the
// pick appeared in.
type Hit struct {
	Date       string  `json:"date"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Industry   string  `json:"industry"`
	TotalScore float64 `json:"total_score"`
	Score      float64 `json:"score"`
}

// Index is the bleve index over pick documents, keyed date-code so the
// same stock can appear once per published file.
type Index struct {
	idx    bleve.Index
	logger *logger.Logger
}

type pickDoc struct {
	Date       string  `json:"date"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Industry   string  `json:"industry"`
	TotalScore float64 `json:"total_score"`
}

var hitFields = []string{"date", "code", "name", "industry", "total_score"}

// Open opens the index at path, creating it on first use.
func Open(path string, log *logger.Logger) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create search index: %w", err)
		}
		log.WithField("path", path).Info("Search index created")
	} else if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}

	return &Index{idx: idx, logger: log}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	pickMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Store = true
	textField.Index = true
	pickMapping.AddFieldMappingsAt("date", textField)
	pickMapping.AddFieldMappingsAt("code", textField)
	pickMapping.AddFieldMappingsAt("name", textField)
	pickMapping.AddFieldMappingsAt("industry", textField)

	scoreField := bleve.NewNumericFieldMapping()
	scoreField.Store = true
	scoreField.Index = true
	pickMapping.AddFieldMappingsAt("total_score", scoreField)

	indexMapping.AddDocumentMapping("_default", pickMapping)

	return indexMapping
}

// IndexPicks replaces one date's documents with the given records.
func (x *Index) IndexPicks(dateKey string, records []dataset.StockRecord) error {
	existing, err := x.idsForDate(dateKey)
	if err != nil {
		return err
	}

	batch := x.idx.NewBatch()
	for _, id := range existing {
		batch.Delete(id)
	}
	for _, rec := range records {
		doc := pickDoc{
			Date:       dateKey,
			Code:       rec.Code,
			Name:       rec.Name,
			Industry:   rec.Industry,
			TotalScore: rec.TotalScore,
		}
		id := fmt.Sprintf("%s-%s", dateKey, rec.Code)
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("failed to batch %s: %w", id, err)
		}
	}
	if err := x.idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to index picks for %s: %w", dateKey, err)
	}

	x.logger.WithFields(map[string]interface{}{
		"date":     dateKey,
		"replaced": len(existing),
		"indexed":  len(records),
	}).Debug("Search index updated")
	return nil
}

// Search runs one query across all indexed picks and returns up to
// limit hits, best first. Code matches rank above name and industry
// matches, and higher pick scores break near-ties.
func (x *Index) Search(q string, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	lowered := strings.ToLower(q)

	exactCode := bleve.NewTermQuery(lowered)
	exactCode.SetField("code")
	exactCode.SetBoost(10.0)

	prefixCode := bleve.NewPrefixQuery(lowered)
	prefixCode.SetField("code")
	prefixCode.SetBoost(5.0)

	nameMatch := bleve.NewMatchQuery(q)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)

	industryMatch := bleve.NewMatchQuery(q)
	industryMatch.SetField("industry")
	industryMatch.SetBoost(2.0)

	wildcardCode := bleve.NewWildcardQuery("*" + lowered + "*")
	wildcardCode.SetField("code")
	wildcardCode.SetBoost(1.5)

	searchQuery := bleve.NewDisjunctionQuery(
		exactCode,
		prefixCode,
		nameMatch,
		industryMatch,
		wildcardCode,
	)

	req := bleve.NewSearchRequest(searchQuery)
	req.Fields = hitFields
	req.Size = limit

	res, err := x.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		total := getFloat(h.Fields, "total_score")
		hits = append(hits, Hit{
			Date:       getString(h.Fields, "date"),
			Code:       getString(h.Fields, "code"),
			Name:       getString(h.Fields, "name"),
			Industry:   getString(h.Fields, "industry"),
			TotalScore: total,
			Score:      h.Score*0.7 + total/100*0.3,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// Prune removes documents dated strictly before cutoffKey and returns
// how many were dropped.
func (x *Index) Prune(cutoffKey string) (int, error) {
	rq := bleve.NewTermRangeQuery("0", cutoffKey)
	rq.SetField("date")

	ids, err := x.collectIDs(rq)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	batch := x.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := x.idx.Batch(batch); err != nil {
		return 0, fmt.Errorf("failed to prune search index: %w", err)
	}
	return len(ids), nil
}

// DocCount returns the number of indexed pick documents.
func (x *Index) DocCount() (uint64, error) {
	return x.idx.DocCount()
}

// Close releases the underlying index.
func (x *Index) Close() error {
	return x.idx.Close()
}

func (x *Index) idsForDate(dateKey string) ([]string, error) {
	tq := bleve.NewTermQuery(dateKey)
	tq.SetField("date")
	ids, err := x.collectIDs(tq)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for %s: %w", dateKey, err)
	}
	return ids, nil
}

func (x *Index) collectIDs(q query.Query) ([]string, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = 10000

	res, err := x.idx.Search(req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func getString(fields map[string]interface{}, key string) string {
	if val, ok := fields[key].(string); ok {
		return val
	}
	return ""
}

func getFloat(fields map[string]interface{}, key string) float64 {
	if val, ok := fields[key].(float64); ok {
		return val
	}
	return 0
}
