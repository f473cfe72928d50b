package memory

import (
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/league"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
)

const (
	LeagueIDPremierLeague = "league-epl"
	LeagueIDBundesliga    = "league-bundesliga"
	LeagueIDLaLiga        = "league-laliga"

	SupplierIDHelloTickets = "supplier-hellotickets"
	SupplierIDP1Travel     = "supplier-p1-travel"

	TeamIDArsenal    = "team-arsenal"
	TeamIDChelsea    = "team-chelsea"
	TeamIDWolves     = "team-wolves"
	TeamIDManUnited  = "team-man-united"
	TeamIDManCity    = "team-man-city"
	TeamIDDortmund   = "team-dortmund"
	TeamIDBayern     = "team-bayern"
	TeamIDRealMadrid = "team-real-madrid"

	FixtureIDDortmundBayern = "fixture-dortmund-bayern"
)

func SeedLeagues() []league.League {
	return []league.League{
		{ID: LeagueIDPremierLeague, Slug: "epl", Name: "Premier League", Country: "England", ExternalLeagueID: 8},
		{ID: LeagueIDBundesliga, Slug: "bundesliga", Name: "Bundesliga", Country: "Germany", ExternalLeagueID: 82},
		{ID: LeagueIDLaLiga, Slug: "laliga", Name: "La Liga", Country: "Spain", ExternalLeagueID: 564},
	}
}

func SeedSuppliers() []supplier.Supplier {
	return []supplier.Supplier{
		{
			ID:       SupplierIDHelloTickets,
			Name:     "Hello Tickets",
			Slug:     supplier.SlugHelloTickets,
			Type:     supplier.TypeTickets,
			IsActive: true,
			Sync:     supplier.SyncConfig{Enabled: true, Method: supplier.SyncMethodAPI, Schedule: "0 0,8-23 * * *"},
			Priority: 80,
		},
		{
			ID:       SupplierIDP1Travel,
			Name:     "P1 Travel",
			Slug:     supplier.SlugP1Travel,
			Type:     supplier.TypePackages,
			IsActive: true,
			Sync:     supplier.SyncConfig{Enabled: true, Method: supplier.SyncMethodCSV},
			Priority: 60,
		},
	}
}

func SeedVenues() []venue.Venue {
	return []venue.Venue{
		{ID: "venue-emirates", NameEN: "Emirates Stadium", CityEN: "London", CountryEN: "England", Capacity: 60704, ExternalVenueID: 204},
		{ID: "venue-stamford-bridge", NameEN: "Stamford Bridge", CityEN: "London", CountryEN: "England", Capacity: 40341, ExternalVenueID: 321},
		{ID: "venue-molineux", NameEN: "Molineux Stadium", CityEN: "Wolverhampton", CountryEN: "England", Capacity: 31750, ExternalVenueID: 214},
		{ID: "venue-signal-iduna", NameEN: "Signal Iduna Park", CityEN: "Dortmund", CountryEN: "Germany", Capacity: 81365, ExternalVenueID: 1031},
		{ID: "venue-allianz", NameEN: "Allianz Arena", CityEN: "München", CountryEN: "Germany", Capacity: 75024, ExternalVenueID: 1160},
		{ID: "venue-bernabeu", NameEN: "Estadio Santiago Bernabéu", CityEN: "Madrid", CountryEN: "Spain", Capacity: 83186, ExternalVenueID: 2020},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{
			ID: TeamIDArsenal, NameEN: "Arsenal", Code: "ARS", Slug: "arsenal", CountryEN: "England",
			ExternalTeamID: 19, VenueID: "venue-emirates", LeagueIDs: []string{LeagueIDPremierLeague},
			SupplierInfo: []team.SupplierInfo{
				{SupplierID: SupplierIDHelloTickets, SupplierTeamName: "Arsenal", SupplierExternalID: "1001"},
			},
			IsPopular: true,
		},
		{
			ID: TeamIDChelsea, NameEN: "Chelsea", Code: "CHE", Slug: "chelsea", CountryEN: "England",
			ExternalTeamID: 18, VenueID: "venue-stamford-bridge", LeagueIDs: []string{LeagueIDPremierLeague},
			SupplierInfo: []team.SupplierInfo{
				{SupplierID: SupplierIDHelloTickets, SupplierTeamName: "Chelsea", SupplierExternalID: "1002"},
			},
			IsPopular: true,
		},
		{
			ID: TeamIDWolves, NameEN: "Wolves", Code: "WOL", Slug: "wolves", CountryEN: "England",
			ExternalTeamID: 29, VenueID: "venue-molineux", LeagueIDs: []string{LeagueIDPremierLeague},
		},
		{
			ID: TeamIDManUnited, NameEN: "Man United", Code: "MUN", Slug: "manchester-united", CountryEN: "England",
			ExternalTeamID: 14, LeagueIDs: []string{LeagueIDPremierLeague}, IsPopular: true,
		},
		{
			ID: TeamIDManCity, NameEN: "Man City", Code: "MCI", Slug: "manchester-city", CountryEN: "England",
			ExternalTeamID: 9, LeagueIDs: []string{LeagueIDPremierLeague}, IsPopular: true,
		},
		{
			ID: TeamIDDortmund, NameEN: "Borussia Dortmund", Code: "BVB", Slug: "borussia-dortmund", CountryEN: "Germany",
			ExternalTeamID: 68, VenueID: "venue-signal-iduna", LeagueIDs: []string{LeagueIDBundesliga},
		},
		{
			ID: TeamIDBayern, NameEN: "Bayern Munich", NameHE: "באיירן מינכן", Code: "FCB", Slug: "bayern-munich", CountryEN: "Germany",
			ExternalTeamID: 503, VenueID: "venue-allianz", LeagueIDs: []string{LeagueIDBundesliga}, IsPopular: true,
		},
		{
			ID: TeamIDRealMadrid, NameEN: "Real Madrid", Code: "RMA", Slug: "real-madrid", CountryEN: "Spain",
			ExternalTeamID: 3468, VenueID: "venue-bernabeu", LeagueIDs: []string{LeagueIDLaLiga}, IsPopular: true,
		},
	}
}

func SeedFixtures() []fixture.Fixture {
	kickoff := time.Date(2026, 2, 28, 17, 30, 0, 0, time.UTC)
	return []fixture.Fixture{
		{
			ID:         FixtureIDDortmundBayern,
			LeagueID:   LeagueIDBundesliga,
			HomeTeamID: TeamIDDortmund,
			AwayTeamID: TeamIDBayern,
			VenueID:    "venue-signal-iduna",
			KickoffAt:  kickoff,
			Status:     fixture.StatusScheduled,
			Round:      "24",
			Slug:       fixture.BuildSlug("borussia-dortmund", "bayern-munich", kickoff),
		},
	}
}
