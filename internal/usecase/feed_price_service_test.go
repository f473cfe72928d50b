package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

type sliceFeedSource []FeedProduct

func (s sliceFeedSource) Products(ctx context.Context, visit func(FeedProduct) error) error {
	for _, product := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := visit(product); err != nil {
			return err
		}
	}
	return nil
}

const (
	fixtureIDWolvesArsenal = "fixture-wolves-arsenal"
	testBrandMapping       = `{"leagues":[{"leagueId":"league-epl","leagueName":"Premier League","brands":[
		{"brand":"Wolves","teamId":"team-wolves","teamName":"Wolves"},
		{"brand":"Arsenal","teamId":"team-arsenal","teamName":"Arsenal"}]}]}`
)

type feedHarness struct {
	service     *FeedPriceService
	teamRepo    *memory.TeamRepository
	fixtureRepo *memory.FixtureRepository
	offerRepo   *memory.OfferRepository
}

func newFeedHarness(t *testing.T) feedHarness {
	t.Helper()

	kickoff := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	fixtures := append(memory.SeedFixtures(), fixture.Fixture{
		ID:         fixtureIDWolvesArsenal,
		LeagueID:   memory.LeagueIDPremierLeague,
		HomeTeamID: memory.TeamIDWolves,
		AwayTeamID: memory.TeamIDArsenal,
		KickoffAt:  kickoff,
		Status:     fixture.StatusScheduled,
		Slug:       fixture.BuildSlug("wolves", "arsenal", kickoff),
	})

	brands, err := ParseBrandMapping([]byte(testBrandMapping))
	require.NoError(t, err)

	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	fixtureRepo := memory.NewFixtureRepository(fixtures)
	offerRepo := memory.NewOfferRepository(nil)
	supplierRepo := memory.NewSupplierRepository(memory.SeedSuppliers())
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	logger := logging.NewNop()

	service := NewFeedPriceService(
		supplierRepo,
		teamRepo,
		offerRepo,
		NewTeamResolver(teamRepo, TeamResolverOptions{}),
		NewFixtureResolver(fixtureRepo, FixtureTolerance{ByProvider: map[string]time.Duration{ProviderP1: 60 * time.Hour}}),
		NewSupplierMappingService(teamRepo, fixtureRepo, logger),
		NewMinPriceService(fixtureRepo, offerRepo, nil, clock, logger),
		brands,
		clock,
		FeedPriceConfig{ResolveWorkers: 2},
		logger,
	)
	return feedHarness{service: service, teamRepo: teamRepo, fixtureRepo: fixtureRepo, offerRepo: offerRepo}
}

func wolvesProduct(home, away, price, extra string) FeedProduct {
	return FeedProduct{
		Brand:        "Wolves",
		Subcategory:  "football",
		HomeTeamName: home,
		AwayTeamName: away,
		DateStart:    "2026-03-14 15:00:00",
		Price:        decimal.RequireFromString(price),
		Currency:     "EUR",
		ProductURL:   "https://p1travel.com/en/football/" + strings.ToLower(strings.ReplaceAll(home+"-"+away, " ", "-")) + "/" + price,
		ExtraInfo:    extra,
	}
}

func TestFeedPriceService_SyncIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newFeedHarness(t)

	feed := sliceFeedSource{
		wolvesProduct("Wolverhampton Wanderers", "Arsenal", "150", ""),
		wolvesProduct("Wolverhampton Wanderers", "Arsenal", "129", "Ticket type: Hospitality ticket | Seating plan: Lower tier"),
		wolvesProduct("Wolverhampton Wanderers", "Some Team FC", "80", ""),
		{Brand: "Unknown", Subcategory: "football", HomeTeamName: "A", AwayTeamName: "B", DateStart: "2026-03-14", Price: decimal.NewFromInt(10)},
		{Brand: "Wolves", Subcategory: "concerts", HomeTeamName: "A", AwayTeamName: "B", DateStart: "2026-03-14", Price: decimal.NewFromInt(10)},
	}

	first, err := h.service.Sync(ctx, feed)
	require.NoError(t, err)
	require.Equal(t, 2, first.PerformancesFound)
	require.Equal(t, 1, first.Unmatched)
	require.Equal(t, 1, first.MatchesUpdated)
	require.Equal(t, 1, first.OffersCreated)
	require.Equal(t, 1, first.MinPriceUpdates)
	require.Zero(t, first.Errors)

	stored, found, err := h.offerRepo.FindByKey(ctx, offer.Key{
		FixtureID:  fixtureIDWolvesArsenal,
		OwnerType:  offer.OwnerSupplier,
		OwnerID:    memory.SupplierIDP1Travel,
		TicketType: offer.TicketStandard,
	})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "129", stored.Price.String())
	require.True(t, stored.IsHospitality)
	require.True(t, strings.HasPrefix(stored.URL, DefaultP1AffiliatePrefix))

	fx, _, err := h.fixtureRepo.GetByID(ctx, fixtureIDWolvesArsenal)
	require.NoError(t, err)
	ref, ok := fx.SupplierRef(memory.SupplierIDP1Travel)
	require.True(t, ok)
	require.Equal(t, "Wolves|Wolverhampton Wanderers|Arsenal|2026-03-14 15:00:00", ref.SupplierExternalID)
	require.Equal(t, "false", ref.Metadata[fixture.MetaReversed])

	wolves, _, err := h.teamRepo.GetByID(ctx, memory.TeamIDWolves)
	require.NoError(t, err)
	entry, ok := wolves.SupplierEntry(memory.SupplierIDP1Travel)
	require.True(t, ok)
	require.Equal(t, "Wolverhampton Wanderers", entry.SupplierTeamName)

	teamWrites, fixtureWrites, offerWrites := h.teamRepo.Writes(), h.fixtureRepo.Writes(), h.offerRepo.Writes()

	second, err := h.service.Sync(ctx, feed)
	require.NoError(t, err)
	require.Zero(t, second.Writes())
	require.Equal(t, 1, second.MatchesSkipped)
	require.Equal(t, 1, second.OffersSkipped)
	require.Equal(t, teamWrites, h.teamRepo.Writes())
	require.Equal(t, fixtureWrites, h.fixtureRepo.Writes())
	require.Equal(t, offerWrites, h.offerRepo.Writes())
}

func TestFeedPriceService_ReversedRowIsMappedAndFlagged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newFeedHarness(t)

	feed := sliceFeedSource{wolvesProduct("Arsenal", "Wolves", "99", "")}
	stats, err := h.service.Sync(ctx, feed)
	require.NoError(t, err)
	require.Equal(t, 1, stats.MatchesUpdated)

	fx, _, err := h.fixtureRepo.GetByID(ctx, fixtureIDWolvesArsenal)
	require.NoError(t, err)
	require.Equal(t, memory.TeamIDWolves, fx.HomeTeamID, "import never swaps home and away")
	ref, ok := fx.SupplierRef(memory.SupplierIDP1Travel)
	require.True(t, ok)
	require.Equal(t, "true", ref.Metadata[fixture.MetaReversed])
}

func TestFeedPriceService_SameFixtureUnderTwoBrandsKeepsCheapest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newFeedHarness(t)

	arsenalRow := wolvesProduct("Wolves", "Arsenal", "110", "")
	arsenalRow.Brand = "Arsenal"
	feed := sliceFeedSource{
		wolvesProduct("Wolves", "Arsenal", "140", ""),
		arsenalRow,
	}

	stats, err := h.service.Sync(ctx, feed)
	require.NoError(t, err)
	require.Equal(t, 1, stats.OffersCreated)
	require.Equal(t, 1, stats.MatchesSkipped)

	fx, _, err := h.fixtureRepo.GetByID(ctx, fixtureIDWolvesArsenal)
	require.NoError(t, err)
	require.NotNil(t, fx.MinPrice)
	require.Equal(t, "110", fx.MinPrice.Amount.String())
}

func TestFeedPriceService_TeamSpelledTwoWaysIsWrittenOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newFeedHarness(t)

	kickoff := time.Date(2026, 4, 18, 14, 0, 0, 0, time.UTC)
	_, err := h.fixtureRepo.Upsert(ctx, fixture.Fixture{
		ID:         "fixture-arsenal-wolves",
		LeagueID:   memory.LeagueIDPremierLeague,
		HomeTeamID: memory.TeamIDArsenal,
		AwayTeamID: memory.TeamIDWolves,
		KickoffAt:  kickoff,
		Status:     fixture.StatusScheduled,
		Slug:       fixture.BuildSlug("arsenal", "wolves", kickoff),
	})
	require.NoError(t, err)

	arsenalHome := wolvesProduct("Arsenal", "Wolves", "95", "")
	arsenalHome.Brand = "Arsenal"
	arsenalHome.DateStart = "2026-04-18 14:00:00"
	feed := sliceFeedSource{
		wolvesProduct("Wolverhampton Wanderers", "Arsenal", "150", ""),
		arsenalHome,
	}

	first, err := h.service.Sync(ctx, feed)
	require.NoError(t, err)
	require.Equal(t, 2, first.TeamMappings)
	require.Equal(t, 2, first.MatchesUpdated)

	wolves, _, err := h.teamRepo.GetByID(ctx, memory.TeamIDWolves)
	require.NoError(t, err)
	recorded, ok := wolves.SupplierEntry(memory.SupplierIDP1Travel)
	require.True(t, ok)

	teamWrites := h.teamRepo.Writes()
	second, err := h.service.Sync(ctx, feed)
	require.NoError(t, err)
	require.Zero(t, second.TeamMappings)
	require.Zero(t, second.Writes())
	require.Equal(t, teamWrites, h.teamRepo.Writes())

	wolves, _, err = h.teamRepo.GetByID(ctx, memory.TeamIDWolves)
	require.NoError(t, err)
	again, _ := wolves.SupplierEntry(memory.SupplierIDP1Travel)
	require.Equal(t, recorded.SupplierTeamName, again.SupplierTeamName)
}

func TestFeedPriceService_EmptyBrandMapping(t *testing.T) {
	t.Parallel()

	service := NewFeedPriceService(nil, nil, nil, nil, nil, nil, nil, BrandMapping{}, nil, FeedPriceConfig{}, logging.NewNop())
	_, err := service.Sync(context.Background(), sliceFeedSource{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestFeedPriceService_BrandMappingLookup(t *testing.T) {
	t.Parallel()

	mapping, err := ParseBrandMapping([]byte(testBrandMapping))
	require.NoError(t, err)
	require.True(t, mapping.Allowed("Wolves"))
	require.False(t, mapping.Allowed("wolves"))
	require.Equal(t, memory.LeagueIDPremierLeague, mapping.Teams("Arsenal")[0].LeagueID)

	_, err = ParseBrandMapping([]byte(`{"leagues":[{"leagueName":"x","brands":[]}]}`))
	require.Error(t, err)
}

func TestParseFeedDate(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"2026-03-14 15:00:00", "2026-03-14T15:00:00Z", "2026-03-14"} {
		got, ok := parseFeedDate(raw)
		require.True(t, ok, raw)
		require.Equal(t, 14, got.Day())
	}
	_, ok := parseFeedDate("14/03/2026")
	require.False(t, ok)
}
