// Package search serves listing candidates from an Elasticsearch index.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store"
)

const DefaultIndex = "business_listings"

// document is the indexed shape of a listing.
type document struct {
	ID            string    `json:"id"`
	SellerID      string    `json:"seller_id"`
	Title         string    `json:"title"`
	BusinessType  string    `json:"business_type"`
	AskingPrice   float64   `json:"asking_price"`
	Location      string    `json:"location"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	AnnualRevenue float64   `json:"annual_revenue"`
	Employees     int       `json:"employees"`
	Status        string    `json:"status"`
	Timeline      string    `json:"timeline"`
	CreatedAt     time.Time `json:"created_at"`
}

func (d document) toModel(id string) *models.Listing {
	if d.ID == "" {
		d.ID = id
	}
	return &models.Listing{
		ID:            d.ID,
		SellerID:      d.SellerID,
		Title:         d.Title,
		BusinessType:  d.BusinessType,
		AskingPrice:   d.AskingPrice,
		Location:      d.Location,
		City:          d.City,
		State:         d.State,
		AnnualRevenue: d.AnnualRevenue,
		Employees:     d.Employees,
		Status:        models.ListingStatus(d.Status),
		Timeline:      d.Timeline,
		CreatedAt:     d.CreatedAt,
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string   `json:"_id"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	ID     string   `json:"_id"`
	Found  bool     `json:"found"`
	Source document `json:"_source"`
}

// ListingStore reads listings from Elasticsearch. It is read-only.
type ListingStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

var _ store.ListingStore = (*ListingStore)(nil)

func NewListingStore(client *elasticsearch.Client, index string, log logger.Logger) *ListingStore {
	if index == "" {
		index = DefaultIndex
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ListingStore{client: client, index: index, logger: log}
}

func (s *ListingStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	res, err := s.client.Get(s.index, id, s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, apperrors.NewStoreError("get_listing", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFoundError("listing", id)
	}
	if res.IsError() {
		return nil, responseError("get_listing", res)
	}

	var doc getResponse
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, apperrors.NewStoreError("get_listing", fmt.Errorf("decode response: %w", err))
	}
	if !doc.Found {
		return nil, apperrors.NewNotFoundError("listing", id)
	}
	return doc.Source.toModel(doc.ID), nil
}

// BuildCandidateQuery returns the search body for active listings under an
// optional price ceiling, newest first.
func BuildCandidateQuery(priceCeiling *float64, limit int) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"status": string(models.ListingActive)}},
	}
	if priceCeiling != nil {
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{
				"asking_price": map[string]interface{}{"lte": *priceCeiling},
			},
		})
	}
	return map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

func (s *ListingStore) ListActiveListings(ctx context.Context, priceCeiling *float64, limit int) ([]*models.Listing, error) {
	body, err := json.Marshal(BuildCandidateQuery(priceCeiling, limit))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, apperrors.NewStoreError("list_active_listings", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("list_active_listings", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewStoreError("list_active_listings", fmt.Errorf("decode response: %w", err))
	}

	out := make([]*models.Listing, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		out = append(out, hit.Source.toModel(hit.ID))
	}

	s.logger.Debug("Listing candidates fetched from index", map[string]interface{}{
		"index":     s.index,
		"totalHits": parsed.Hits.Total.Value,
		"returned":  len(out),
	})
	return out, nil
}

// responseError maps an error response. Client errors are permanent.
func responseError(op string, res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	stdErr := apperrors.NewStoreError(op, fmt.Errorf("elasticsearch %s: %s", res.Status(), bytes.TrimSpace(raw))).
		WithMetadata("status", res.StatusCode)
	if res.StatusCode < 500 && res.StatusCode != http.StatusTooManyRequests {
		stdErr.Retryable = false
	}
	return stdErr
}
