package league

import "fmt"

// League is a competition whose fixtures are sold on the marketplace.
type League struct {
	ID               string `json:"id"`
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	Country          string `json:"country"`
	ExternalLeagueID int64  `json:"external_league_id"`
	SeasonID         int64  `json:"season_id,omitempty"`
}

func (l League) Validate() error {
	if l.Slug == "" {
		return fmt.Errorf("league slug is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}

	return nil
}
