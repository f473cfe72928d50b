package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPerformancePageSize is the page size requested from ticket APIs.
const DefaultPerformancePageSize = 100

// PerformanceProvider lists a supplier's upcoming events for one performer.
type PerformanceProvider interface {
	FetchPerformances(ctx context.Context, performerID string, page, limit int) (PerformancePage, error)
}

// ExchangeRateProvider converts currencies into EUR.
type ExchangeRateProvider interface {
	RateToEUR(ctx context.Context, currency string) (decimal.Decimal, error)
}

// FeedSource yields the raw product rows of a partner price feed.
type FeedSource interface {
	Products(ctx context.Context, visit func(FeedProduct) error) error
}

// ScheduleProvider returns a season's fixtures with their teams and venues.
type ScheduleProvider interface {
	FetchSeasonSchedule(ctx context.Context, seasonID int64) (ExternalSchedule, error)
}

type PerformancePage struct {
	Page         int
	PerPage      int
	TotalCount   int
	Performances []ExternalPerformance
}

// TotalPages is ceil(TotalCount/PerPage); a missing page size counts as the default.
func (p PerformancePage) TotalPages() int {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = DefaultPerformancePageSize
	}
	if p.TotalCount <= 0 {
		return 0
	}
	return (p.TotalCount + perPage - 1) / perPage
}

type ExternalPerformance struct {
	ID       string
	Name     string
	URL      string
	StartsAt *time.Time
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Currency string
}

// FeedProduct is one product row of a partner feed, before deduplication.
type FeedProduct struct {
	Brand        string
	Category     string
	Subcategory  string
	HomeTeamName string
	AwayTeamName string
	DateStart    string
	Price        decimal.Decimal
	Currency     string
	ProductURL   string
	ExtraInfo    string
}

type ExternalSchedule struct {
	SeasonID int64
	Teams    []ExternalTeam
	Venues   []ExternalVenue
	Fixtures []ExternalFixture
}

type ExternalTeam struct {
	ExternalID int64
	Name       string
	Short      string
	ImageURL   string
	VenueID    int64
}

type ExternalVenue struct {
	ExternalID int64
	Name       string
	City       string
	Capacity   int
	ImageURL   string
}

type ExternalFixture struct {
	ExternalID         int64
	Round              string
	HomeTeamName       string
	AwayTeamName       string
	HomeTeamExternalID int64
	AwayTeamExternalID int64
	VenueExternalID    int64
	KickoffAt          time.Time
	Status             string
}
