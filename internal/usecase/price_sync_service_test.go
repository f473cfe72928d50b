package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

type performanceProviderMock struct {
	mock.Mock
}

func (m *performanceProviderMock) FetchPerformances(ctx context.Context, performerID string, page, limit int) (PerformancePage, error) {
	args := m.Called(ctx, performerID, page, limit)
	return args.Get(0).(PerformancePage), args.Error(1)
}

const fixtureIDArsenalChelsea = "fixture-arsenal-chelsea"

type priceSyncHarness struct {
	service     *PriceSyncService
	provider    *performanceProviderMock
	fixtureRepo *memory.FixtureRepository
	offerRepo   *memory.OfferRepository
	teamRepo    *memory.TeamRepository
	supplierRep *memory.SupplierRepository
}

func arsenalChelseaKickoff() time.Time {
	return time.Date(2026, 3, 15, 16, 30, 0, 0, time.UTC)
}

func newPriceSyncHarness(t *testing.T) priceSyncHarness {
	t.Helper()

	kickoff := arsenalChelseaKickoff()
	fixtures := append(memory.SeedFixtures(), fixture.Fixture{
		ID:         fixtureIDArsenalChelsea,
		LeagueID:   memory.LeagueIDPremierLeague,
		HomeTeamID: memory.TeamIDArsenal,
		AwayTeamID: memory.TeamIDChelsea,
		KickoffAt:  kickoff,
		Status:     fixture.StatusScheduled,
		Slug:       fixture.BuildSlug("arsenal", "chelsea", kickoff),
		SupplierRefs: []fixture.SupplierRef{
			{SupplierID: memory.SupplierIDHelloTickets, SupplierExternalID: "perf-1"},
		},
	})

	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	fixtureRepo := memory.NewFixtureRepository(fixtures)
	offerRepo := memory.NewOfferRepository(nil)
	supplierRepo := memory.NewSupplierRepository(memory.SeedSuppliers())
	leagueRepo := memory.NewLeagueRepository(memory.SeedLeagues())
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	logger := logging.NewNop()

	provider := &performanceProviderMock{}
	t.Cleanup(func() { provider.AssertExpectations(t) })

	service := NewPriceSyncService(
		supplierRepo,
		leagueRepo,
		teamRepo,
		fixtureRepo,
		offerRepo,
		provider,
		NewSupplierMappingService(teamRepo, fixtureRepo, logger),
		NewMinPriceService(fixtureRepo, offerRepo, nil, clock, logger),
		FixtureTolerance{},
		clock,
		PriceSyncConfig{},
		logger,
	)

	return priceSyncHarness{
		service:     service,
		provider:    provider,
		fixtureRepo: fixtureRepo,
		offerRepo:   offerRepo,
		teamRepo:    teamRepo,
		supplierRep: supplierRepo,
	}
}

func decimalPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func arsenalChelseaPerformance() ExternalPerformance {
	startsAt := time.Date(2026, 3, 15, 17, 30, 0, 0, time.UTC)
	return ExternalPerformance{
		ID:       "perf-1",
		Name:     "Arsenal vs Chelsea",
		URL:      "https://www.hellotickets.com/arsenal-chelsea/p-1",
		StartsAt: &startsAt,
		MinPrice: decimalPtr("85.50"),
		MaxPrice: decimalPtr("300"),
		Currency: "EUR",
	}
}

func singlePage(perfs ...ExternalPerformance) PerformancePage {
	return PerformancePage{Page: 1, PerPage: 100, TotalCount: len(perfs), Performances: perfs}
}

func TestPriceSyncService_SecondRunWritesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newPriceSyncHarness(t)

	other := ExternalPerformance{ID: "perf-2", Name: "Chelsea vs Wolves", URL: "https://www.hellotickets.com/p-2", MinPrice: decimalPtr("60"), Currency: "EUR"}
	h.provider.On("FetchPerformances", mock.Anything, "1001", 1, 100).Return(singlePage(arsenalChelseaPerformance()), nil)
	h.provider.On("FetchPerformances", mock.Anything, "1002", 1, 100).Return(singlePage(arsenalChelseaPerformance(), other), nil)

	first, err := h.service.SyncLeague(ctx, "epl")
	require.NoError(t, err)
	require.Equal(t, 2, first.APICalls)
	require.Equal(t, 2, first.TeamsFetched)
	require.Equal(t, 2, first.PerformancesFound)
	require.Equal(t, 1, first.MatchesUpdated)
	require.Equal(t, 1, first.OffersCreated)
	require.Equal(t, 1, first.MinPriceUpdates)
	require.Zero(t, first.Errors)

	stored, _, err := h.fixtureRepo.GetByID(ctx, fixtureIDArsenalChelsea)
	require.NoError(t, err)
	ref, ok := stored.SupplierRef(memory.SupplierIDHelloTickets)
	require.True(t, ok)
	require.Equal(t, "https://www.hellotickets.com/arsenal-chelsea/p-1?"+DefaultHelloTicketsAffiliateParams, ref.Metadata[fixture.MetaAffiliateURL])
	require.Equal(t, "85.5", ref.Metadata[fixture.MetaMinPrice])
	require.NotNil(t, stored.MinPrice)
	require.Equal(t, "85.5", stored.MinPrice.Amount.String())
	require.True(t, stored.KickoffAt.Equal(arsenalChelseaKickoff()), "time-of-day difference must not move kickoff")

	fixtureWrites := h.fixtureRepo.Writes()
	offerWrites := h.offerRepo.Writes()
	teamWrites := h.teamRepo.Writes()
	supplierWrites := h.supplierRep.Writes()

	second, err := h.service.SyncLeague(ctx, "epl")
	require.NoError(t, err)
	require.Zero(t, second.Writes())
	require.Equal(t, 1, second.MatchesSkipped)
	require.Equal(t, 1, second.OffersSkipped)
	require.Zero(t, second.MatchesUpdated)
	require.Zero(t, second.MinPriceUpdates)

	require.Equal(t, fixtureWrites, h.fixtureRepo.Writes())
	require.Equal(t, offerWrites, h.offerRepo.Writes())
	require.Equal(t, teamWrites, h.teamRepo.Writes())
	require.Equal(t, supplierWrites, h.supplierRep.Writes())
}

func TestPriceSyncService_PriceChangeUpdatesOfferAndMinPrice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newPriceSyncHarness(t)

	perf := arsenalChelseaPerformance()
	h.provider.On("FetchPerformances", mock.Anything, "1001", 1, 100).Return(singlePage(perf), nil).Once()
	h.provider.On("FetchPerformances", mock.Anything, "1002", 1, 100).Return(singlePage(), nil)

	_, err := h.service.SyncLeague(ctx, "epl")
	require.NoError(t, err)

	cheaper := perf
	cheaper.MinPrice = decimalPtr("70")
	h.provider.On("FetchPerformances", mock.Anything, "1001", 1, 100).Return(singlePage(cheaper), nil).Once()

	stats, err := h.service.SyncLeague(ctx, "epl")
	require.NoError(t, err)
	require.Equal(t, 1, stats.MatchesUpdated)
	require.Equal(t, 1, stats.OffersUpdated)
	require.Equal(t, 1, stats.MinPriceUpdates)
	require.Contains(t, stats.Details[0].ChangedFields, fixture.MetaMinPrice)

	stored, _, err := h.offerRepo.FindByKey(ctx, offer.Key{
		FixtureID:  fixtureIDArsenalChelsea,
		OwnerType:  offer.OwnerSupplier,
		OwnerID:    memory.SupplierIDHelloTickets,
		TicketType: offer.TicketStandard,
	})
	require.NoError(t, err)
	require.Equal(t, "70", stored.Price.String())
}

func TestPriceSyncService_DroppedMaxPriceIsRemoved(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newPriceSyncHarness(t)

	perf := arsenalChelseaPerformance()
	h.provider.On("FetchPerformances", mock.Anything, "1001", 1, 100).Return(singlePage(perf), nil).Once()
	h.provider.On("FetchPerformances", mock.Anything, "1002", 1, 100).Return(singlePage(), nil)

	_, err := h.service.SyncLeague(ctx, "epl")
	require.NoError(t, err)

	withoutMax := perf
	withoutMax.MaxPrice = nil
	h.provider.On("FetchPerformances", mock.Anything, "1001", 1, 100).Return(singlePage(withoutMax), nil).Once()

	stats, err := h.service.SyncLeague(ctx, "epl")
	require.NoError(t, err)
	require.Equal(t, 1, stats.MatchesUpdated)
	require.Equal(t, []string{fixture.MetaMaxPrice}, stats.Details[0].ChangedFields)

	stored, _, err := h.fixtureRepo.GetByID(ctx, fixtureIDArsenalChelsea)
	require.NoError(t, err)
	ref, ok := stored.SupplierRef(memory.SupplierIDHelloTickets)
	require.True(t, ok)
	require.NotContains(t, ref.Metadata, fixture.MetaMaxPrice)
	require.Equal(t, "85.5", ref.Metadata[fixture.MetaMinPrice])
}

func TestPriceSyncService_PaginatesAndCountsFetchFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newPriceSyncHarness(t)

	h.provider.On("FetchPerformances", mock.Anything, "1001", 1, 100).
		Return(PerformancePage{Page: 1, PerPage: 100, TotalCount: 150}, nil)
	h.provider.On("FetchPerformances", mock.Anything, "1001", 2, 100).
		Return(PerformancePage{Page: 2, PerPage: 100, TotalCount: 150, Performances: []ExternalPerformance{arsenalChelseaPerformance()}}, nil)
	h.provider.On("FetchPerformances", mock.Anything, "1002", 1, 100).
		Return(PerformancePage{}, errors.New("upstream 503"))

	stats, err := h.service.SyncLeague(ctx, "epl")
	require.NoError(t, err)
	require.Equal(t, 3, stats.APICalls)
	require.Equal(t, 1, stats.TeamsFetched)
	require.Equal(t, 1, stats.TeamFetchFailures)
	require.Equal(t, 1, stats.OffersCreated)
}

func TestPriceSyncService_MissingPerformanceIsNotFound(t *testing.T) {
	t.Parallel()

	h := newPriceSyncHarness(t)
	h.provider.On("FetchPerformances", mock.Anything, mock.Anything, 1, 100).Return(singlePage(), nil)

	stats, err := h.service.SyncLeague(context.Background(), "epl")
	require.NoError(t, err)
	require.Equal(t, 1, stats.MatchesNotFound)
	require.Zero(t, stats.Writes())
	require.Equal(t, DetailNotFound, stats.Details[0].Action)
}

func TestPriceSyncService_RescheduledDayMovesKickoff(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newPriceSyncHarness(t)

	perf := arsenalChelseaPerformance()
	moved := time.Date(2026, 3, 16, 20, 0, 0, 0, time.UTC)
	perf.StartsAt = &moved
	h.provider.On("FetchPerformances", mock.Anything, "1001", 1, 100).Return(singlePage(perf), nil)
	h.provider.On("FetchPerformances", mock.Anything, "1002", 1, 100).Return(singlePage(), nil)

	stats, err := h.service.SyncLeague(ctx, "epl")
	require.NoError(t, err)
	require.Contains(t, stats.Details[0].ChangedFields, "kickoff_at")

	stored, _, err := h.fixtureRepo.GetByID(ctx, fixtureIDArsenalChelsea)
	require.NoError(t, err)
	require.True(t, stored.KickoffAt.Equal(moved))
	require.Equal(t, "arsenal-vs-chelsea-2026-03-16", stored.Slug)
}

func TestPriceSyncService_UnknownLeague(t *testing.T) {
	t.Parallel()

	h := newPriceSyncHarness(t)
	_, err := h.service.SyncLeague(context.Background(), "serie-a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPriceSyncService_SyncLeaguesKeepsGoingAfterFailure(t *testing.T) {
	t.Parallel()

	h := newPriceSyncHarness(t)
	h.provider.On("FetchPerformances", mock.Anything, mock.Anything, 1, 100).Return(singlePage(), nil)

	results := h.service.SyncLeagues(context.Background(), []string{"serie-a", "epl"})
	require.Len(t, results, 2)
	require.ErrorIs(t, results[0].Err, ErrNotFound)
	require.NoError(t, results[1].Err)
	require.Equal(t, "Premier League", results[1].LeagueName)
}
