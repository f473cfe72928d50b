package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/league"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

const (
	DefaultHelloTicketsAffiliateParams = "tap_a=141252-18675a&tap_s=8995852-00a564"
	DefaultPriceCallInterval           = 100 * time.Millisecond
	DefaultPriceLeagueInterval         = 500 * time.Millisecond

	ProviderHelloTickets = "hellotickets"
)

// Detail actions recorded on a price sync pass.
const (
	DetailUpdated  = "updated"
	DetailSkipped  = "skipped"
	DetailNotFound = "not_found"
	DetailNoPrice  = "no_price"
	DetailError    = "error"
)

type PriceSyncConfig struct {
	SupplierSlug    string
	Provider        string
	AffiliateParams string
	PageSize        int
	// CallInterval spaces provider calls; zero disables throttling.
	CallInterval   time.Duration
	LeagueInterval time.Duration
}

func (c PriceSyncConfig) withDefaults() PriceSyncConfig {
	if strings.TrimSpace(c.SupplierSlug) == "" {
		c.SupplierSlug = supplier.SlugHelloTickets
	}
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = ProviderHelloTickets
	}
	if strings.TrimSpace(c.AffiliateParams) == "" {
		c.AffiliateParams = DefaultHelloTicketsAffiliateParams
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPerformancePageSize
	}
	if c.CallInterval < 0 {
		c.CallInterval = 0
	}
	if c.LeagueInterval < 0 {
		c.LeagueInterval = 0
	}
	return c
}

// LeagueSyncResult is the outcome of one league pass. Err is set when the
// pass aborted before touching any fixture.
type LeagueSyncResult struct {
	LeagueSlug string
	LeagueName string
	Stats      workerrun.Stats
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// PriceSyncService reconciles a ticket API's performances into fixture
// supplier references, supplier offers and fixture min prices. Unchanged
// upstream data produces no writes.
type PriceSyncService struct {
	supplierRepo supplier.Repository
	leagueRepo   league.Repository
	teamRepo     team.Repository
	fixtureRepo  fixture.Repository
	offerRepo    offer.Repository
	provider     PerformanceProvider
	mapping      *SupplierMappingService
	minPrice     *MinPriceService
	tolerance    FixtureTolerance
	limiter      *rate.Limiter
	clock        clockwork.Clock
	cfg          PriceSyncConfig
	logger       *logging.Logger
}

func NewPriceSyncService(
	supplierRepo supplier.Repository,
	leagueRepo league.Repository,
	teamRepo team.Repository,
	fixtureRepo fixture.Repository,
	offerRepo offer.Repository,
	provider PerformanceProvider,
	mapping *SupplierMappingService,
	minPrice *MinPriceService,
	tolerance FixtureTolerance,
	clock clockwork.Clock,
	cfg PriceSyncConfig,
	logger *logging.Logger,
) *PriceSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cfg = cfg.withDefaults()

	limit := rate.Inf
	if cfg.CallInterval > 0 {
		limit = rate.Every(cfg.CallInterval)
	}

	return &PriceSyncService{
		supplierRepo: supplierRepo,
		leagueRepo:   leagueRepo,
		teamRepo:     teamRepo,
		fixtureRepo:  fixtureRepo,
		offerRepo:    offerRepo,
		provider:     provider,
		mapping:      mapping,
		minPrice:     minPrice,
		tolerance:    tolerance,
		limiter:      rate.NewLimiter(limit, 1),
		clock:        clock,
		cfg:          cfg,
		logger:       logger.Named("price_sync"),
	}
}

// SyncLeagues runs SyncLeague for every slug in order. A failing league is
// recorded on its result and the loop moves on.
func (s *PriceSyncService) SyncLeagues(ctx context.Context, leagueSlugs []string) []LeagueSyncResult {
	results := make([]LeagueSyncResult, 0, len(leagueSlugs))
	for i, slug := range leagueSlugs {
		if ctx.Err() != nil {
			now := s.clock.Now()
			results = append(results, LeagueSyncResult{LeagueSlug: slug, Err: ctx.Err(), StartedAt: now, FinishedAt: now})
			continue
		}

		s.logger.InfoContext(ctx, "processing league", "league_slug", slug, "remaining", len(leagueSlugs)-i)
		startedAt := s.clock.Now()
		stats, name, err := s.syncLeague(ctx, slug)
		if err != nil {
			s.logger.ErrorContext(ctx, "league price sync failed", "league_slug", slug, "error", err)
		}
		results = append(results, LeagueSyncResult{
			LeagueSlug: slug,
			LeagueName: name,
			Stats:      stats,
			Err:        err,
			StartedAt:  startedAt,
			FinishedAt: s.clock.Now(),
		})

		if i < len(leagueSlugs)-1 && s.cfg.LeagueInterval > 0 {
			select {
			case <-ctx.Done():
			case <-s.clock.After(s.cfg.LeagueInterval):
			}
		}
	}
	return results
}

// SyncLeague reconciles one league and returns its stats. Per-fixture failures
// are counted in Stats.Errors; only setup failures are returned.
func (s *PriceSyncService) SyncLeague(ctx context.Context, leagueSlug string) (workerrun.Stats, error) {
	stats, _, err := s.syncLeague(ctx, leagueSlug)
	return stats, err
}

func (s *PriceSyncService) syncLeague(ctx context.Context, leagueSlug string) (workerrun.Stats, string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriceSyncService.SyncLeague",
		attribute.String("league_slug", leagueSlug),
		attribute.String("provider", s.cfg.Provider),
	)
	defer span.End()

	var stats workerrun.Stats
	leagueSlug = strings.TrimSpace(leagueSlug)
	if leagueSlug == "" {
		return stats, "", fmt.Errorf("%w: league slug is required", ErrInvalidInput)
	}

	sup, exists, err := s.supplierRepo.GetBySlug(ctx, s.cfg.SupplierSlug)
	if err != nil {
		return stats, "", fmt.Errorf("get supplier: %w", err)
	}
	if !exists {
		return stats, "", fmt.Errorf("%w: supplier=%s", ErrNotFound, s.cfg.SupplierSlug)
	}
	lg, exists, err := s.leagueRepo.GetBySlug(ctx, leagueSlug)
	if err != nil {
		return stats, "", fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return stats, "", fmt.Errorf("%w: league=%s", ErrNotFound, leagueSlug)
	}

	s.logger.InfoContext(ctx, "price sync started", "league_slug", lg.Slug, "supplier", sup.Slug)

	performances, err := s.fetchLeaguePerformances(ctx, lg, sup, &stats)
	if err != nil {
		return stats, lg.Name, err
	}

	now := s.clock.Now().UTC()
	fixtures, err := s.fixtureRepo.ListUpcomingBySupplier(ctx, lg.ID, sup.ID, now)
	if err != nil {
		return stats, lg.Name, fmt.Errorf("list upcoming fixtures: %w", err)
	}
	s.logger.InfoContext(ctx, "fixtures to reconcile", "league_slug", lg.Slug, "fixtures", len(fixtures))

	for _, item := range fixtures {
		if err := ctx.Err(); err != nil {
			return stats, lg.Name, err
		}
		if err := s.reconcileFixture(ctx, sup, item, performances, &stats); err != nil {
			stats.Errors++
			stats.AddDetail(workerrun.Detail{FixtureID: item.ID, Reference: item.Slug, Action: DetailError, Message: err.Error()})
			s.logger.ErrorContext(ctx, "reconcile fixture failed", "fixture_id", item.ID, "slug", item.Slug, "error", err)
		}
	}

	if stats.Writes() > 0 {
		if err := s.supplierRepo.MarkSynced(ctx, sup.ID, now); err != nil {
			s.logger.WarnContext(ctx, "mark supplier synced failed", "supplier_id", sup.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "price sync completed",
		"league_slug", lg.Slug,
		"api_calls", stats.APICalls,
		"matches_updated", stats.MatchesUpdated,
		"matches_skipped", stats.MatchesSkipped,
		"matches_not_found", stats.MatchesNotFound,
		"offers_created", stats.OffersCreated,
		"offers_updated", stats.OffersUpdated,
		"offers_skipped", stats.OffersSkipped,
		"min_price_updates", stats.MinPriceUpdates,
		"errors", stats.Errors,
	)
	return stats, lg.Name, nil
}

// fetchLeaguePerformances pulls every page for every mapped team and merges
// them by performance id; the first team to report an id wins.
func (s *PriceSyncService) fetchLeaguePerformances(ctx context.Context, lg league.League, sup supplier.Supplier, stats *workerrun.Stats) (map[string]ExternalPerformance, error) {
	teams, err := s.teamRepo.ListBySupplier(ctx, lg.ID, sup.ID)
	if err != nil {
		return nil, fmt.Errorf("list supplier teams: %w", err)
	}
	s.logger.InfoContext(ctx, "teams with supplier id", "league_slug", lg.Slug, "teams", len(teams))

	merged := make(map[string]ExternalPerformance)
	for _, item := range teams {
		entry, ok := item.SupplierEntry(sup.ID)
		if !ok || strings.TrimSpace(entry.SupplierExternalID) == "" {
			continue
		}

		performances, err := s.fetchAllPages(ctx, entry.SupplierExternalID, stats)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			stats.TeamFetchFailures++
			s.logger.WarnContext(ctx, "fetch team performances failed",
				"team_id", item.ID,
				"performer_id", entry.SupplierExternalID,
				"error", err,
			)
			continue
		}
		stats.TeamsFetched++

		for _, perf := range performances {
			if _, seen := merged[perf.ID]; !seen {
				merged[perf.ID] = perf
			}
		}
		s.logger.DebugContext(ctx, "fetched team performances",
			"team_id", item.ID,
			"performances", len(performances),
			"total", len(merged),
		)
	}
	stats.PerformancesFound = len(merged)
	return merged, nil
}

func (s *PriceSyncService) fetchAllPages(ctx context.Context, performerID string, stats *workerrun.Stats) ([]ExternalPerformance, error) {
	var out []ExternalPerformance
	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		stats.APICalls++
		result, err := s.provider.FetchPerformances(ctx, performerID, page, s.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch performances page %d: %w", page, err)
		}
		if page == 1 {
			totalPages = result.TotalPages()
		}
		out = append(out, result.Performances...)
	}
	return out, nil
}

func (s *PriceSyncService) reconcileFixture(ctx context.Context, sup supplier.Supplier, item fixture.Fixture, performances map[string]ExternalPerformance, stats *workerrun.Stats) error {
	ref, ok := item.SupplierRef(sup.ID)
	if !ok || strings.TrimSpace(ref.SupplierExternalID) == "" {
		stats.MatchesSkipped++
		return nil
	}
	perf, ok := performances[ref.SupplierExternalID]
	if !ok {
		stats.MatchesNotFound++
		stats.AddDetail(workerrun.Detail{FixtureID: item.ID, Reference: ref.SupplierExternalID, Action: DetailNotFound})
		return nil
	}

	affiliateURL := ""
	if strings.TrimSpace(perf.URL) != "" {
		affiliateURL = AppendAffiliateParams(perf.URL, s.cfg.AffiliateParams)
	}
	currency := strings.ToUpper(strings.TrimSpace(perf.Currency))
	if currency == "" {
		currency = offer.CurrencyEUR
	}

	desired := performanceMetadata(perf, affiliateURL, currency)
	changed := fixture.ChangedMetadata(ref.Metadata, desired)
	if len(changed) > 0 {
		entry := fixture.SupplierRef{SupplierID: sup.ID, SupplierExternalID: ref.SupplierExternalID, Metadata: desired}
		if _, err := s.mapping.ApplyFixtureMapping(ctx, item, entry); err != nil {
			return err
		}
	}

	moved, err := s.syncKickoff(ctx, item, perf)
	if err != nil {
		return err
	}
	if moved {
		changed = append(changed, "kickoff_at")
	}

	if len(changed) > 0 {
		stats.MatchesUpdated++
	} else {
		stats.MatchesSkipped++
	}

	if perf.MinPrice == nil || affiliateURL == "" {
		stats.AddDetail(workerrun.Detail{FixtureID: item.ID, Reference: perf.ID, Action: DetailNoPrice, ChangedFields: changed})
		return nil
	}

	action, err := upsertOffer(ctx, s.offerRepo, offer.Offer{
		FixtureID:   item.ID,
		OwnerType:   offer.OwnerSupplier,
		OwnerID:     sup.ID,
		Price:       *perf.MinPrice,
		Currency:    currency,
		TicketType:  offer.TicketStandard,
		IsAvailable: true,
		URL:         affiliateURL,
	})
	if err != nil {
		return err
	}
	recordOffer(stats, action)

	result, err := s.minPrice.Refresh(ctx, item.ID)
	if err != nil {
		// Offer is stored; the next pass retries the min price.
		s.logger.WarnContext(ctx, "refresh fixture min price failed", "fixture_id", item.ID, "error", err)
	} else if result.Updated {
		stats.MinPriceUpdates++
	}

	detailAction := DetailSkipped
	if len(changed) > 0 || action != OfferSkipped || result.Updated {
		detailAction = DetailUpdated
	}
	stats.AddDetail(workerrun.Detail{
		FixtureID:     item.ID,
		Reference:     perf.ID,
		Action:        detailAction,
		ChangedFields: changed,
		Message:       fmt.Sprintf("offer %s %s %s", action, perf.MinPrice.String(), currency),
	})
	return nil
}

// syncKickoff moves the kickoff only when the provider reports another
// calendar day within the provider's tolerance. Time-of-day differences are
// ignored since providers disagree on timezones.
func (s *PriceSyncService) syncKickoff(ctx context.Context, item fixture.Fixture, perf ExternalPerformance) (bool, error) {
	if perf.StartsAt == nil || perf.StartsAt.IsZero() {
		return false, nil
	}
	reported := perf.StartsAt.UTC()
	if sameDay(item.KickoffAt.UTC(), reported) {
		return false, nil
	}

	delta := absDuration(reported.Sub(item.KickoffAt))
	if delta > s.tolerance.For(s.cfg.Provider) {
		s.logger.WarnContext(ctx, "provider kickoff outside tolerance, left unchanged",
			"fixture_id", item.ID,
			"stored", item.KickoffAt,
			"reported", reported,
		)
		return false, nil
	}
	slug, err := s.rescheduledSlug(ctx, item, reported)
	if err != nil {
		return false, err
	}
	if err := s.fixtureRepo.UpdateKickoff(ctx, item.ID, reported, slug); err != nil {
		return false, fmt.Errorf("update kickoff: %w", err)
	}
	s.logger.InfoContext(ctx, "fixture kickoff moved",
		"fixture_id", item.ID,
		"from", item.KickoffAt,
		"to", reported,
		"slug", slug,
	)
	return true, nil
}

// rescheduledSlug rebuilds the fixture slug for the new kickoff date since the
// date is part of the slug.
func (s *PriceSyncService) rescheduledSlug(ctx context.Context, item fixture.Fixture, kickoff time.Time) (string, error) {
	home, found, err := s.teamRepo.GetByID(ctx, item.HomeTeamID)
	if err != nil {
		return "", fmt.Errorf("get home team: %w", err)
	}
	if !found {
		return "", fmt.Errorf("%w: home team %s", ErrNotFound, item.HomeTeamID)
	}
	away, found, err := s.teamRepo.GetByID(ctx, item.AwayTeamID)
	if err != nil {
		return "", fmt.Errorf("get away team: %w", err)
	}
	if !found {
		return "", fmt.Errorf("%w: away team %s", ErrNotFound, item.AwayTeamID)
	}
	return fixture.BuildSlug(home.Slug, away.Slug, kickoff), nil
}

func performanceMetadata(perf ExternalPerformance, affiliateURL, currency string) map[string]string {
	meta := map[string]string{
		fixture.MetaURL:          strings.TrimSpace(perf.URL),
		fixture.MetaAffiliateURL: affiliateURL,
		fixture.MetaCurrency:     currency,
	}
	if perf.MinPrice != nil {
		meta[fixture.MetaMinPrice] = perf.MinPrice.String()
	}
	if perf.MaxPrice != nil {
		meta[fixture.MetaMaxPrice] = perf.MaxPrice.String()
	}
	return meta
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
