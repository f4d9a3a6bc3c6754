package database

import (
	"context"
	"fmt"
	"io"

	"github.com/olivere/elastic/v7"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

const directoryMapping = `{
	"mappings": {
		"properties": {
			"id":         {"type": "keyword"},
			"first_name": {"type": "text"},
			"last_name":  {"type": "text"},
			"email":      {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"department": {"type": "text"},
			"job_title":  {"type": "text"},
			"location":   {"type": "text"},
			"role":       {"type": "keyword"},
			"status":     {"type": "keyword"}
		}
	}
}`

var searchFields = []string{"first_name^2", "last_name^2", "email", "department", "job_title", "location"}

// ElasticDirectory is the employee search index on Elasticsearch 7.x.
type ElasticDirectory struct {
	client *elastic.Client
	index  string
}

// NewElasticDirectory connects to url. Sniffing is off so it works behind Docker and proxies.
func NewElasticDirectory(url, index string, opts ...elastic.ClientOptionFunc) (*ElasticDirectory, error) {
	options := append([]elastic.ClientOptionFunc{
		elastic.SetURL(url),
		elastic.SetSniff(false),
	}, opts...)
	client, err := elastic.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &ElasticDirectory{client: client, index: index}, nil
}

// EnsureIndex creates the index with its mapping when missing.
func (d *ElasticDirectory) EnsureIndex(ctx context.Context) error {
	exists, err := d.client.IndexExists(d.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", d.index, err)
	}
	if exists {
		return nil
	}
	if _, err := d.client.CreateIndex(d.index).BodyString(directoryMapping).Do(ctx); err != nil {
		return fmt.Errorf("failed to create index %s: %w", d.index, err)
	}
	return nil
}

// Index upserts one entry using the employee id as document id.
func (d *ElasticDirectory) Index(ctx context.Context, entry domain.DirectoryEntry) error {
	_, err := d.client.Index().
		Index(d.index).
		Id(entry.ID).
		BodyJson(entry).
		Refresh("true").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index employee %s: %w", entry.ID, err)
	}
	return nil
}

// BulkIndex indexes entries in one request.
func (d *ElasticDirectory) BulkIndex(ctx context.Context, entries []domain.DirectoryEntry) error {
	bulk := d.client.Bulk()
	for _, entry := range entries {
		bulk = bulk.Add(elastic.NewBulkIndexRequest().Index(d.index).Id(entry.ID).Doc(entry))
	}
	return d.doBulk(ctx, bulk)
}

// Delete removes documents by employee id.
func (d *ElasticDirectory) Delete(ctx context.Context, ids []string) error {
	bulk := d.client.Bulk()
	for _, id := range ids {
		bulk = bulk.Add(elastic.NewBulkDeleteRequest().Index(d.index).Id(id))
	}
	return d.doBulk(ctx, bulk)
}

func (d *ElasticDirectory) doBulk(ctx context.Context, bulk *elastic.BulkService) error {
	if bulk.NumberOfActions() == 0 {
		return nil
	}
	resp, err := bulk.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk request failed: %w", err)
	}
	if resp.Errors {
		for _, item := range resp.Items {
			for _, op := range item {
				if op.Error != nil {
					return fmt.Errorf("bulk item %s failed: %s", op.Id, op.Error.Reason)
				}
			}
		}
	}
	return nil
}

// Search runs a fuzzy match plus a prefix match over the name and profile fields.
func (d *ElasticDirectory) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	q := elastic.NewBoolQuery().Should(
		elastic.NewMultiMatchQuery(query, searchFields...).Fuzziness("AUTO"),
		elastic.NewMultiMatchQuery(query, searchFields...).Type("phrase_prefix"),
	).MinimumNumberShouldMatch(1)

	res, err := d.client.Search().
		Index(d.index).
		Query(q).
		Size(limit).
		FetchSource(false).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.Id)
	}
	return ids, nil
}

// IDs scrolls the whole index and returns every document id.
func (d *ElasticDirectory) IDs(ctx context.Context) ([]string, error) {
	scroll := d.client.Scroll(d.index).
		Size(1000).
		KeepAlive("2m").
		FetchSource(false).
		Sort("_doc", true)
	defer scroll.Clear(context.Background())

	var ids []string
	for {
		res, err := scroll.Do(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scroll error: %w", err)
		}
		for _, hit := range res.Hits.Hits {
			ids = append(ids, hit.Id)
		}
	}
	return ids, nil
}
