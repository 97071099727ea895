package app

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage-matchmaking/internal/common/config"
	"brokerage-matchmaking/internal/common/database"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/matchmaking/scoring"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store/cache"
	"brokerage-matchmaking/internal/store/postgres"
	"brokerage-matchmaking/internal/store/search"
)

func testConfig() *config.Config {
	return &config.Config{
		Matchmaking: config.MatchmakingConfig{
			AlgorithmVersion:        "v1.0",
			MinScore:                65,
			DefaultLimit:            5,
			BuyerCandidateLimit:     100,
			SellerCandidateLimit:    50,
			PriceCeilingBuffer:      1.2,
			RegenerationWindowHours: 12,
			ScoringConcurrency:      4,
			ListingSource:           config.ListingSourcePostgres,
			GenerationLockTTL:       30000,
		},
		Retry: config.RetryConfig{MaxRetries: 1, BaseDelay: 1, MaxDelay: 5},
	}
}

func testInfra(t *testing.T) *Infra {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Infra{Postgres: &database.PostgresClient{DB: db}}
}

func TestScorerFromConfig(t *testing.T) {
	s, err := ScorerFromConfig(config.MatchmakingConfig{})
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultWeights(), s.Weights())

	custom := config.MatchmakingConfig{Weights: config.WeightsConfig{
		BusinessType: 0.3, PriceRange: 0.3, Location: 0.1, Experience: 0.1,
		Timeline: 0.1, Financing: 0.05, RevenueRange: 0.05,
	}}
	s, err = ScorerFromConfig(custom)
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.Weights().PriceRange)

	_, err = ScorerFromConfig(config.MatchmakingConfig{Weights: config.WeightsConfig{BusinessType: 0.5}})
	assert.Error(t, err)
}

func TestScorerFromConfig_ReferenceDataOverride(t *testing.T) {
	m := config.MatchmakingConfig{ReferenceData: config.ReferenceDataConfig{
		RelatedTypes: map[string][]string{"laundromat": {"dry_cleaning"}},
	}}
	s, err := ScorerFromConfig(m)
	require.NoError(t, err)

	buyer := &models.Profile{ID: "b", Role: models.RoleBuyer, Preferences: &models.Preferences{BusinessTypes: []string{"laundromat"}}}
	related := s.Score(buyer, &models.Listing{ID: "l", BusinessType: "dry_cleaning"})
	unrelated := s.Score(buyer, &models.Listing{ID: "l2", BusinessType: "bakery"})
	assert.Greater(t, related.Breakdown.BusinessType, unrelated.Breakdown.BusinessType)
}

func TestGeneratorConfig(t *testing.T) {
	gc := GeneratorConfig(testConfig().Matchmaking)
	assert.Equal(t, 65, gc.MinScore)
	assert.Equal(t, 5, gc.DefaultLimit)
	assert.Equal(t, 12*time.Hour, gc.RegenerationWindow)
	assert.Equal(t, 30*time.Second, gc.LockTTL)
	assert.Equal(t, 4, gc.Concurrency)
}

func TestLifecyclePolicy(t *testing.T) {
	p := LifecyclePolicy(config.MatchmakingConfig{AllowReopen: true})
	assert.True(t, p.AllowReopen)
	assert.False(t, p.Permissive)
}

func TestBuild_PostgresOnly(t *testing.T) {
	c, err := Build(testConfig(), testInfra(t), logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.IsType(t, &postgres.Store{}, c.Profiles)
	assert.IsType(t, &postgres.Store{}, c.Listings)
	assert.NotNil(t, c.Generator)
	assert.NotNil(t, c.Lifecycle)
	assert.NotNil(t, c.Notifier)
}

func TestBuild_RedisEnablesProfileCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := testConfig()
	cfg.Matchmaking.ProfileCacheTTL = 60000
	infra := testInfra(t)
	infra.Redis = &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	c, err := Build(cfg, infra, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &cache.ProfileCache{}, c.Profiles)
}

func TestBuild_ElasticsearchListingSource(t *testing.T) {
	cfg := testConfig()
	cfg.Matchmaking.ListingSource = config.ListingSourceElasticsearch

	_, err := Build(cfg, testInfra(t), logger.NewTestLogger(t))
	assert.Error(t, err, "an elasticsearch client is required")

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{"http://localhost:9200"}})
	require.NoError(t, err)
	infra := testInfra(t)
	infra.Elasticsearch = &database.ElasticsearchClient{Client: es}

	c, err := Build(cfg, infra, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &search.ListingStore{}, c.Listings)
}
