package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

// MinPriceResult reports what Refresh did to a fixture's min price.
type MinPriceResult struct {
	Updated  bool
	Previous *fixture.MinPrice
	Current  *fixture.MinPrice
}

// MinPriceService keeps fixture.min_price equal to the cheapest available
// offer across all owners. Offers are compared in EUR and the winner is
// stored in its own currency.
type MinPriceService struct {
	fixtureRepo fixture.Repository
	offerRepo   offer.Repository
	rates       ExchangeRateProvider
	clock       clockwork.Clock
	logger      *logging.Logger
}

func NewMinPriceService(fixtureRepo fixture.Repository, offerRepo offer.Repository, rates ExchangeRateProvider, clock clockwork.Clock, logger *logging.Logger) *MinPriceService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MinPriceService{
		fixtureRepo: fixtureRepo,
		offerRepo:   offerRepo,
		rates:       rates,
		clock:       clock,
		logger:      logger,
	}
}

// Refresh recomputes the fixture's min price and writes only when the
// amount or currency differs, clearing it when no offers remain.
func (s *MinPriceService) Refresh(ctx context.Context, fixtureID string) (MinPriceResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MinPriceService.Refresh")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return MinPriceResult{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return MinPriceResult{}, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return MinPriceResult{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}

	offers, err := s.offerRepo.ListAvailableByFixture(ctx, fixtureID)
	if err != nil {
		return MinPriceResult{}, fmt.Errorf("list fixture offers: %w", err)
	}

	result := MinPriceResult{Previous: item.MinPrice}
	cheapest, found := s.cheapest(ctx, offers)
	if !found {
		if item.MinPrice == nil {
			return result, nil
		}
		if err := s.fixtureRepo.UpdateMinPrice(ctx, fixtureID, nil); err != nil {
			return MinPriceResult{}, fmt.Errorf("clear fixture min price: %w", err)
		}
		s.logger.InfoContext(ctx, "fixture min price cleared, no offers left", "fixture_id", fixtureID)
		result.Updated = true
		return result, nil
	}

	if item.MinPrice != nil && item.MinPrice.Amount.Equal(cheapest.Price) && item.MinPrice.Currency == cheapest.Currency {
		result.Current = item.MinPrice
		return result, nil
	}

	next := &fixture.MinPrice{
		Amount:    cheapest.Price,
		Currency:  cheapest.Currency,
		UpdatedAt: s.clock.Now().UTC(),
	}
	if err := s.fixtureRepo.UpdateMinPrice(ctx, fixtureID, next); err != nil {
		return MinPriceResult{}, fmt.Errorf("update fixture min price: %w", err)
	}
	s.logger.InfoContext(ctx, "fixture min price updated",
		"fixture_id", fixtureID,
		"amount", next.Amount.String(),
		"currency", next.Currency,
		"offer_id", cheapest.ID,
	)
	result.Updated = true
	result.Current = next
	return result, nil
}

func (s *MinPriceService) cheapest(ctx context.Context, offers []offer.Offer) (offer.Offer, bool) {
	var (
		best     offer.Offer
		bestEUR  decimal.Decimal
		haveBest bool
	)
	for _, item := range offers {
		if !item.IsAvailable || !item.Price.IsPositive() {
			continue
		}
		inEUR, err := s.toEUR(ctx, item.Price, item.Currency)
		if err != nil {
			s.logger.WarnContext(ctx, "skip offer with unconvertible currency", "offer_id", item.ID, "currency", item.Currency, "error", err)
			continue
		}
		// Ties keep the earlier offer so repeated runs pick the same row.
		if !haveBest || inEUR.LessThan(bestEUR) {
			best, bestEUR, haveBest = item, inEUR, true
		}
	}
	return best, haveBest
}

func (s *MinPriceService) toEUR(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || currency == offer.CurrencyEUR {
		return amount, nil
	}
	if s.rates == nil {
		return decimal.Zero, fmt.Errorf("%w: no exchange rates configured for %s", ErrDependencyUnavailable, currency)
	}
	rate, err := s.rates.RateToEUR(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}
