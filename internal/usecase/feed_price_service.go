package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

const (
	DefaultP1AffiliatePrefix  = "https://p1travel.prf.hn/click/camref:1100l5y3LS/creativeref:1011l96189/destination:"
	DefaultFeedResolveWorkers = 8

	ProviderP1 = "p1"

	hospitalityMarker = "Ticket type: Hospitality ticket"
	feedSubcategory   = "football"
)

// Detail actions specific to feed imports.
const (
	DetailUnmatched = "unmatched"
	DetailDuplicate = "duplicate"
)

var feedDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type FeedPriceConfig struct {
	SupplierSlug    string
	Provider        string
	AffiliatePrefix string
	ResolveWorkers  int
}

func (c FeedPriceConfig) withDefaults() FeedPriceConfig {
	if strings.TrimSpace(c.SupplierSlug) == "" {
		c.SupplierSlug = supplier.SlugP1Travel
	}
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = ProviderP1
	}
	if strings.TrimSpace(c.AffiliatePrefix) == "" {
		c.AffiliatePrefix = DefaultP1AffiliatePrefix
	}
	if c.ResolveWorkers <= 0 {
		c.ResolveWorkers = DefaultFeedResolveWorkers
	}
	return c
}

// FeedMatch is the cheapest feed product for one brand, pairing and date.
type FeedMatch struct {
	Key           string
	Brand         string
	HomeTeamName  string
	AwayTeamName  string
	DateStart     string
	Price         decimal.Decimal
	Currency      string
	ProductURL    string
	AffiliateURL  string
	IsHospitality bool
}

type feedResolution struct {
	match     FeedMatch
	fixture   FixtureMatch
	home      team.Team
	away      team.Team
	homeMatch TeamMatch
	awayMatch TeamMatch
	reason    string
}

// FeedPriceService imports a partner price feed: it keeps the cheapest
// product per match, resolves teams and fixtures, records the supplier
// mappings and upserts one offer per fixture.
type FeedPriceService struct {
	supplierRepo supplier.Repository
	teamRepo     team.Repository
	offerRepo    offer.Repository
	teams        *TeamResolver
	fixtures     *FixtureResolver
	mapping      *SupplierMappingService
	minPrice     *MinPriceService
	brands       BrandMapping
	clock        clockwork.Clock
	cfg          FeedPriceConfig
	logger       *logging.Logger
}

func NewFeedPriceService(
	supplierRepo supplier.Repository,
	teamRepo team.Repository,
	offerRepo offer.Repository,
	teams *TeamResolver,
	fixtures *FixtureResolver,
	mapping *SupplierMappingService,
	minPrice *MinPriceService,
	brands BrandMapping,
	clock clockwork.Clock,
	cfg FeedPriceConfig,
	logger *logging.Logger,
) *FeedPriceService {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FeedPriceService{
		supplierRepo: supplierRepo,
		teamRepo:     teamRepo,
		offerRepo:    offerRepo,
		teams:        teams,
		fixtures:     fixtures,
		mapping:      mapping,
		minPrice:     minPrice,
		brands:       brands,
		clock:        clock,
		cfg:          cfg.withDefaults(),
		logger:       logger.Named("feed_price"),
	}
}

// Sync reads the whole feed, then reconciles every matched fixture. Rows
// that cannot be matched are counted in Stats.Unmatched.
func (s *FeedPriceService) Sync(ctx context.Context, source FeedSource) (workerrun.Stats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeedPriceService.Sync",
		attribute.String("provider", s.cfg.Provider),
	)
	defer span.End()

	var stats workerrun.Stats
	if source == nil {
		return stats, fmt.Errorf("%w: feed source is required", ErrInvalidInput)
	}
	if s.brands.Len() == 0 {
		return stats, fmt.Errorf("%w: brand mapping is empty", ErrInvalidInput)
	}

	sup, exists, err := s.supplierRepo.GetBySlug(ctx, s.cfg.SupplierSlug)
	if err != nil {
		return stats, fmt.Errorf("get supplier: %w", err)
	}
	if !exists {
		return stats, fmt.Errorf("%w: supplier=%s", ErrNotFound, s.cfg.SupplierSlug)
	}

	matches, err := s.CollectMatches(ctx, source)
	if err != nil {
		return stats, err
	}
	stats.PerformancesFound = len(matches)
	s.logger.InfoContext(ctx, "feed matches collected", "matches", len(matches))

	resolutions, err := s.resolveAll(ctx, sup, matches)
	if err != nil {
		return stats, err
	}

	applied := make(map[string]string, len(resolutions))
	for _, res := range resolutions {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !res.fixture.Found {
			stats.Unmatched++
			stats.AddDetail(workerrun.Detail{Reference: res.match.Key, Action: DetailUnmatched, Message: res.reason})
			continue
		}
		fixtureID := res.fixture.Fixture.ID
		if winner, dup := applied[fixtureID]; dup {
			stats.MatchesSkipped++
			stats.AddDetail(workerrun.Detail{FixtureID: fixtureID, Reference: res.match.Key, Action: DetailDuplicate, Message: "cheaper row " + winner})
			continue
		}
		applied[fixtureID] = res.match.Key

		if err := s.apply(ctx, sup, res, &stats); err != nil {
			stats.Errors++
			stats.AddDetail(workerrun.Detail{FixtureID: fixtureID, Reference: res.match.Key, Action: DetailError, Message: err.Error()})
			s.logger.ErrorContext(ctx, "apply feed match failed", "fixture_id", fixtureID, "key", res.match.Key, "error", err)
		}
	}

	if stats.Writes() > 0 {
		if err := s.supplierRepo.MarkSynced(ctx, sup.ID, s.clock.Now().UTC()); err != nil {
			s.logger.WarnContext(ctx, "mark supplier synced failed", "supplier_id", sup.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "feed price sync completed",
		"matches", len(matches),
		"matches_updated", stats.MatchesUpdated,
		"matches_skipped", stats.MatchesSkipped,
		"unmatched", stats.Unmatched,
		"offers_created", stats.OffersCreated,
		"offers_updated", stats.OffersUpdated,
		"offers_skipped", stats.OffersSkipped,
		"min_price_updates", stats.MinPriceUpdates,
		"errors", stats.Errors,
	)
	return stats, nil
}

// CollectMatches filters the feed to football products of mapped brands and
// keeps the cheapest product per brand, pairing and start date. The result
// is ordered by key.
func (s *FeedPriceService) CollectMatches(ctx context.Context, source FeedSource) ([]FeedMatch, error) {
	byKey := make(map[string]FeedMatch)
	seen, kept := 0, 0
	err := source.Products(ctx, func(product FeedProduct) error {
		seen++
		if !s.brands.Allowed(product.Brand) {
			return nil
		}
		if !strings.EqualFold(strings.TrimSpace(product.Subcategory), feedSubcategory) {
			return nil
		}
		home := strings.TrimSpace(product.HomeTeamName)
		away := strings.TrimSpace(product.AwayTeamName)
		date := strings.TrimSpace(product.DateStart)
		if home == "" || away == "" || date == "" || !product.Price.IsPositive() {
			return nil
		}
		kept++

		brand := strings.TrimSpace(product.Brand)
		key := strings.Join([]string{brand, home, away, date}, "|")
		currency := strings.ToUpper(strings.TrimSpace(product.Currency))
		if currency == "" {
			currency = offer.CurrencyEUR
		}
		candidate := FeedMatch{
			Key:           key,
			Brand:         brand,
			HomeTeamName:  home,
			AwayTeamName:  away,
			DateStart:     date,
			Price:         product.Price,
			Currency:      currency,
			ProductURL:    strings.TrimSpace(product.ProductURL),
			AffiliateURL:  WrapAffiliateRedirect(product.ProductURL, s.cfg.AffiliatePrefix),
			IsHospitality: strings.Contains(product.ExtraInfo, hospitalityMarker),
		}
		if existing, ok := byKey[key]; ok && !candidate.Price.LessThan(existing.Price) {
			return nil
		}
		byKey[key] = candidate
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	out := make([]FeedMatch, 0, len(byKey))
	for _, m := range byKey {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	s.logger.DebugContext(ctx, "feed filtered", "products", seen, "kept", kept, "unique", len(out))
	return out, nil
}

// resolveAll resolves matches concurrently. Resolution only reads, so the
// order of writes afterwards stays that of matches.
func (s *FeedPriceService) resolveAll(ctx context.Context, sup supplier.Supplier, matches []FeedMatch) ([]feedResolution, error) {
	out := make([]feedResolution, len(matches))
	if len(matches) == 0 {
		return out, nil
	}

	workerCount := s.cfg.ResolveWorkers
	if workerCount > len(matches) {
		workerCount = len(matches)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create resolve pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i := range matches {
		i := i
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			out[i] = s.resolve(ctx, sup, matches[i])
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit resolve task: %w", err)
		}
	}
	workers.Wait()

	// Cheapest first so a fixture listed under several brands keeps its
	// lowest price.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].match.Price.LessThan(out[j].match.Price)
	})
	return out, nil
}

func (s *FeedPriceService) resolve(ctx context.Context, sup supplier.Supplier, m FeedMatch) feedResolution {
	res := feedResolution{match: m}

	date, ok := parseFeedDate(m.DateStart)
	if !ok {
		res.reason = "unparseable date " + m.DateStart
		return res
	}

	brandTeams := s.brands.Teams(m.Brand)
	if len(brandTeams) == 0 {
		res.reason = "brand not mapped"
		return res
	}

	res.reason = "no fixture in window"
	for _, bt := range brandTeams {
		brandTeam, exists, err := s.teamRepo.GetByID(ctx, bt.TeamID)
		if err != nil || !exists {
			res.reason = fmt.Sprintf("brand team %s not found", bt.TeamID)
			continue
		}

		scope := TeamScope{LeagueID: bt.LeagueID, SupplierID: sup.ID}
		homeMatch, err := s.teams.ResolveTeam(ctx, m.HomeTeamName, scope)
		if err != nil {
			res.reason = err.Error()
			continue
		}
		awayMatch, err := s.teams.ResolveTeam(ctx, m.AwayTeamName, scope)
		if err != nil {
			res.reason = err.Error()
			continue
		}

		home, away, sided := pickFeedSides(brandTeam, homeMatch, awayMatch)
		if !sided {
			res.reason = "teams not resolved"
			continue
		}

		found, err := s.fixtures.ResolveFixture(ctx, home, away, date, bt.LeagueID, s.cfg.Provider)
		if err != nil {
			res.reason = err.Error()
			continue
		}
		if !found.Found {
			continue
		}

		res.fixture = found
		res.home, res.away = home, away
		res.homeMatch, res.awayMatch = homeMatch, awayMatch
		res.reason = ""
		return res
	}
	return res
}

// pickFeedSides fills the home and away teams of a feed row. The brand's
// team must be one of them; a side the resolver missed is taken to be the
// brand's team.
func pickFeedSides(brandTeam team.Team, homeMatch, awayMatch TeamMatch) (team.Team, team.Team, bool) {
	homeOK := homeMatch.Found() && !homeMatch.Ambiguous
	awayOK := awayMatch.Found() && !awayMatch.Ambiguous

	switch {
	case homeOK && awayOK:
		if homeMatch.Team.ID == awayMatch.Team.ID {
			return team.Team{}, team.Team{}, false
		}
		if homeMatch.Team.ID != brandTeam.ID && awayMatch.Team.ID != brandTeam.ID {
			return team.Team{}, team.Team{}, false
		}
		return homeMatch.Team, awayMatch.Team, true
	case homeOK && homeMatch.Team.ID != brandTeam.ID:
		return homeMatch.Team, brandTeam, true
	case awayOK && awayMatch.Team.ID != brandTeam.ID:
		return brandTeam, awayMatch.Team, true
	default:
		return team.Team{}, team.Team{}, false
	}
}

func (s *FeedPriceService) apply(ctx context.Context, sup supplier.Supplier, res feedResolution, stats *workerrun.Stats) error {
	fixtureID := res.fixture.Fixture.ID
	m := res.match

	s.recordTeam(ctx, sup, res.homeMatch, res.home, m.HomeTeamName, stats)
	s.recordTeam(ctx, sup, res.awayMatch, res.away, m.AwayTeamName, stats)

	meta := map[string]string{
		fixture.MetaURL:          m.ProductURL,
		fixture.MetaAffiliateURL: m.AffiliateURL,
		fixture.MetaMinPrice:     m.Price.String(),
		fixture.MetaCurrency:     m.Currency,
		fixture.MetaReversed:     strconv.FormatBool(res.fixture.Reversed),
	}
	var current map[string]string
	if ref, ok := res.fixture.Fixture.SupplierRef(sup.ID); ok {
		current = ref.Metadata
	}
	changed := fixture.ChangedMetadata(current, meta)
	sort.Strings(changed)

	change, err := s.mapping.UpsertFixtureMapping(ctx, fixtureID, fixture.SupplierRef{
		SupplierID:         sup.ID,
		SupplierExternalID: m.Key,
		Metadata:           meta,
	})
	if err != nil {
		return err
	}
	if change.Changed() {
		stats.MatchesUpdated++
	} else {
		stats.MatchesSkipped++
	}
	if res.fixture.Reversed {
		s.logger.InfoContext(ctx, "feed reports fixture reversed", "fixture_id", fixtureID, "key", m.Key)
	}

	action, err := upsertOffer(ctx, s.offerRepo, offer.Offer{
		FixtureID:     fixtureID,
		OwnerType:     offer.OwnerSupplier,
		OwnerID:       sup.ID,
		Price:         m.Price,
		Currency:      m.Currency,
		TicketType:    offer.TicketStandard,
		IsHospitality: m.IsHospitality,
		IsAvailable:   true,
		URL:           m.AffiliateURL,
	})
	if err != nil {
		return err
	}
	recordOffer(stats, action)

	result, err := s.minPrice.Refresh(ctx, fixtureID)
	if err != nil {
		s.logger.WarnContext(ctx, "refresh fixture min price failed", "fixture_id", fixtureID, "error", err)
	} else if result.Updated {
		stats.MinPriceUpdates++
	}

	detailAction := DetailSkipped
	if change.Changed() || action != OfferSkipped || result.Updated {
		detailAction = DetailUpdated
	}
	stats.AddDetail(workerrun.Detail{
		FixtureID:     fixtureID,
		Reference:     m.Key,
		Action:        detailAction,
		ChangedFields: changed,
		Message:       fmt.Sprintf("offer %s %s %s", action, m.Price.String(), m.Currency),
	})
	return nil
}

// recordTeam stores the feed's spelling for a team the resolver found.
// Sides filled in from the brand are not recorded. The feed spells teams
// differently across brands, so only the first spelling is kept.
func (s *FeedPriceService) recordTeam(ctx context.Context, sup supplier.Supplier, match TeamMatch, resolved team.Team, name string, stats *workerrun.Stats) {
	if !match.Found() || match.Team.ID != resolved.ID {
		return
	}
	change, err := s.mapping.RecordFirstTeamMatch(ctx, match, team.SupplierInfo{SupplierID: sup.ID, SupplierTeamName: name})
	if err != nil {
		s.logger.WarnContext(ctx, "record feed team mapping failed", "team_id", resolved.ID, "supplier_team_name", name, "error", err)
		return
	}
	if change.Changed() {
		stats.TeamMappings++
	}
}

func parseFeedDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range feedDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
