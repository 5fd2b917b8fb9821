// internal/store/elastic.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const defaultPageSize = 500

// ElasticStore implements DocumentStore on an Elasticsearch index per
// collection. Queries page with search_after so match sets larger than one
// page are still fully processed.
type ElasticStore struct {
	client   *elasticsearch.Client
	pageSize int
}

func NewElasticStore(client *elasticsearch.Client, pageSize int) *ElasticStore {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &ElasticStore{client: client, pageSize: pageSize}
}

func (s *ElasticStore) Query(ctx context.Context, collection string, filters []Filter, orderBy string) ([]Record, error) {
	var out []Record
	var searchAfter []interface{}

	for {
		body, err := buildSearchBody(filters, orderBy, searchAfter, s.pageSize)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal search body: %w", err)
		}

		req := esapi.SearchRequest{
			Index: []string{collection},
			Body:  bytes.NewReader(raw),
		}

		res, err := req.Do(ctx, s.client)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", collection, err)
		}

		page, lastSort, err := parseSearchResponse(res)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", collection, err)
		}

		out = append(out, page...)
		if len(page) < s.pageSize || lastSort == nil {
			return out, nil
		}
		searchAfter = lastSort
	}
}

func (s *ElasticStore) Get(ctx context.Context, collection, id string) (Record, error) {
	req := esapi.GetRequest{
		Index:      collection,
		DocumentID: id,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get %s/%s: %s", collection, id, res.Status())
	}

	var envelope struct {
		Found  bool   `json:"found"`
		Source Record `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode get response: %w", err)
	}
	if !envelope.Found {
		return nil, ErrNotFound
	}

	return envelope.Source, nil
}

// buildSearchBody translates the generic filter set into an Elasticsearch bool
// query: == becomes a term clause, >= and < become range clauses. Sort always
// carries the id field as a tiebreaker so search_after pagination is stable.
func buildSearchBody(filters []Filter, orderBy string, searchAfter []interface{}, size int) (map[string]interface{}, error) {
	filterClauses := make([]interface{}, 0, len(filters))

	for _, f := range filters {
		switch f.Op {
		case OpEqual:
			filterClauses = append(filterClauses, map[string]interface{}{
				"term": map[string]interface{}{f.Field: f.Value},
			})
		case OpGreaterOrEqual:
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{
					f.Field: map[string]interface{}{"gte": f.Value},
				},
			})
		case OpLess:
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{
					f.Field: map[string]interface{}{"lt": f.Value},
				},
			})
		default:
			return nil, fmt.Errorf("unsupported filter operator: %s", f.Op)
		}
	}

	sort := []interface{}{}
	if orderBy != "" && orderBy != "id" {
		sort = append(sort, map[string]interface{}{orderBy: map[string]interface{}{"order": "asc"}})
	}
	sort = append(sort, map[string]interface{}{"id": map[string]interface{}{"order": "asc"}})

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
			},
		},
		"sort": sort,
		"size": size,
	}
	if searchAfter != nil {
		body["search_after"] = searchAfter
	}

	return body, nil
}

// parseSearchResponse decodes a search envelope into records plus the sort
// values of the last hit, used as the next search_after cursor.
func parseSearchResponse(res *esapi.Response) ([]Record, []interface{}, error) {
	defer res.Body.Close()

	if res.IsError() {
		return nil, nil, fmt.Errorf("search error: %s", res.Status())
	}

	var envelope struct {
		Hits struct {
			Hits []struct {
				Source Record        `json:"_source"`
				Sort   []interface{} `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("decode search response: %w", err)
	}

	records := make([]Record, 0, len(envelope.Hits.Hits))
	var lastSort []interface{}
	for _, hit := range envelope.Hits.Hits {
		records = append(records, hit.Source)
		lastSort = hit.Sort
	}

	return records, lastSort, nil
}
