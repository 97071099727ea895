// Package app assembles the matchmaking components from configuration and
// infrastructure clients. Both binaries build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"brokerage-matchmaking/internal/common/aws"
	"brokerage-matchmaking/internal/common/config"
	"brokerage-matchmaking/internal/common/database"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/common/retry"
	"brokerage-matchmaking/internal/matchmaking/candidates"
	"brokerage-matchmaking/internal/matchmaking/generator"
	"brokerage-matchmaking/internal/matchmaking/lifecycle"
	"brokerage-matchmaking/internal/matchmaking/scoring"
	"brokerage-matchmaking/internal/notify"
	"brokerage-matchmaking/internal/store"
	"brokerage-matchmaking/internal/store/cache"
	"brokerage-matchmaking/internal/store/postgres"
	"brokerage-matchmaking/internal/store/search"
)

// Infra holds the external clients. Redis, Elasticsearch, SES and SNS are
// optional and stay nil when not configured.
type Infra struct {
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
	SES           *aws.SESClient
	SNS           *aws.SNSClient
}

// Connect opens every client the configuration asks for, retrying the
// database connection while it comes up.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (*Infra, error) {
	infra := &Infra{}

	connectPolicy := retry.Policy{
		MaxRetries: 15,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Retryable:  func(error) bool { return true },
	}
	pg, err := retry.DoValue(ctx, connectPolicy, func(ctx context.Context) (*database.PostgresClient, error) {
		pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			log.Warn("postgres not reachable, retrying", map[string]interface{}{"error": err})
		}
		return pg, err
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	infra.Postgres = pg

	if cfg.Database.Redis.Address != "" {
		rc := database.NewRedis(cfg.Database.Redis)
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, continuing without profile cache and generation lock", map[string]interface{}{"error": err})
			_ = rc.Close()
		} else {
			infra.Redis = rc
		}
	}

	if cfg.Matchmaking.ListingSource == config.ListingSourceElasticsearch {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			infra.Close()
			return nil, err
		}
		if err := es.Ping(ctx); err != nil {
			infra.Close()
			return nil, err
		}
		if err := es.CheckIndex(ctx, cfg.Database.Elasticsearch.ListingsIndex); err != nil {
			infra.Close()
			return nil, err
		}
		infra.Elasticsearch = es
	}

	n := cfg.Notifications
	if infra.SES, infra.SNS, err = aws.NewClients(ctx, n.AWS.Region, n.Email.Enabled, n.SMS.Enabled); err != nil {
		infra.Close()
		return nil, err
	}

	return infra, nil
}

func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.Postgres != nil {
		_ = i.Postgres.Close()
	}
}

// Components is the assembled matchmaking core.
type Components struct {
	Store     *postgres.Store
	Profiles  store.ProfileStore
	Listings  store.ListingStore
	Scorer    *scoring.Scorer
	Selector  *candidates.Selector
	Generator *generator.Generator
	Lifecycle *lifecycle.Manager
	Notifier  store.Notifier
}

// ScorerFromConfig builds the scorer from configured weights and reference
// data. Zero weights mean the defaults; configured tables replace built-ins.
func ScorerFromConfig(m config.MatchmakingConfig) (*scoring.Scorer, error) {
	weights := scoring.DefaultWeights()
	if !m.Weights.IsZero() {
		weights = scoring.Weights{
			BusinessType: m.Weights.BusinessType,
			PriceRange:   m.Weights.PriceRange,
			Location:     m.Weights.Location,
			Experience:   m.Weights.Experience,
			Timeline:     m.Weights.Timeline,
			Financing:    m.Weights.Financing,
			RevenueRange: m.Weights.RevenueRange,
		}
	}

	rd := m.ReferenceData
	ref := scoring.DefaultReferenceData().Override(scoring.ReferenceData{
		RelatedTypes:          rd.RelatedTypes,
		Regions:               rd.Regions,
		HighComplexityTypes:   rd.HighComplexityTypes,
		MediumComplexityTypes: rd.MediumComplexityTypes,
	})

	s, err := scoring.NewScorer(weights, ref)
	if err != nil {
		return nil, fmt.Errorf("matchmaking.weights: %w", err)
	}
	return s, nil
}

// GeneratorConfig converts the matchmaking section.
func GeneratorConfig(m config.MatchmakingConfig) generator.Config {
	return generator.Config{
		MinScore:           m.MinScore,
		DefaultLimit:       m.DefaultLimit,
		RegenerationWindow: time.Duration(m.RegenerationWindowHours) * time.Hour,
		Concurrency:        m.ScoringConcurrency,
		LockTTL:            config.GetDuration(m.GenerationLockTTL),
		AlgorithmVersion:   m.AlgorithmVersion,
	}
}

// LifecyclePolicy converts the matchmaking section.
func LifecyclePolicy(m config.MatchmakingConfig) lifecycle.Policy {
	return lifecycle.Policy{AllowReopen: m.AllowReopen, Permissive: m.PermissiveTransitions}
}

// Build wires the core onto the connected infrastructure.
func Build(cfg *config.Config, infra *Infra, log logger.Logger) (*Components, error) {
	m := cfg.Matchmaking

	scorer, err := ScorerFromConfig(m)
	if err != nil {
		return nil, err
	}

	pg := postgres.New(infra.Postgres.DB, retry.FromConfig(cfg.Retry), log)

	var (
		profiles store.ProfileStore = pg
		listings store.ListingStore = pg
		lock     store.GenerationLock
		rdb      *redis.Client
	)
	if infra.Redis != nil {
		rdb = infra.Redis.Client
	}
	if rdb != nil {
		if m.ProfileCacheTTL > 0 {
			profiles = cache.NewProfileCache(pg, rdb, config.GetDuration(m.ProfileCacheTTL), log)
		}
		lock = cache.NewGenerationLock(rdb, log)
	}
	if m.ListingSource == config.ListingSourceElasticsearch {
		if infra.Elasticsearch == nil {
			return nil, fmt.Errorf("listing source elasticsearch requires an elasticsearch client")
		}
		listings = search.NewListingStore(infra.Elasticsearch.Client, cfg.Database.Elasticsearch.ListingsIndex, log)
	}

	deps := notify.Deps{InApp: pg, Profiles: profiles}
	if infra.SES != nil {
		deps.SES = infra.SES
	}
	if infra.SNS != nil {
		deps.SNS = infra.SNS
	}
	notifier := notify.New(notify.Config{
		EmailEnabled:         cfg.Notifications.Email.Enabled,
		FromEmail:            cfg.Notifications.Email.FromEmail,
		SMSEnabled:           cfg.Notifications.SMS.Enabled,
		SMSPriorityThreshold: cfg.Notifications.SMS.PriorityThreshold,
	}, deps, log)

	selector := candidates.NewSelector(profiles, listings, candidates.Config{
		ListingLimit:       m.BuyerCandidateLimit,
		BuyerLimit:         m.SellerCandidateLimit,
		PriceCeilingBuffer: m.PriceCeilingBuffer,
	})

	gen := generator.New(GeneratorConfig(m), generator.Deps{
		Profiles:   profiles,
		Listings:   listings,
		Matches:    pg,
		Candidates: selector,
		Scorer:     scorer,
		Notifier:   notifier,
		Lock:       lock,
	}, log.WithFields(map[string]interface{}{"component": "generator"}))

	mgr := lifecycle.NewManager(lifecycle.Deps{
		Matches:      pg,
		Feedback:     pg,
		Interactions: pg,
		Learning:     pg,
		Profiles:     profiles,
		Listings:     listings,
		Notifier:     notifier,
	}, LifecyclePolicy(m), log.WithFields(map[string]interface{}{"component": "lifecycle"}))

	return &Components{
		Store:     pg,
		Profiles:  profiles,
		Listings:  listings,
		Scorer:    scorer,
		Selector:  selector,
		Generator: gen,
		Lifecycle: mgr,
		Notifier:  notifier,
	}, nil
}
