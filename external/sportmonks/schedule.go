package sportmonks

import (
	"bytes"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

var kickoffLayouts = []string{"2006-01-02 15:04:05", time.RFC3339}

// scheduleCollector flattens the stage/round/fixture tree of a season
// schedule. A team or venue seen on several fixtures is kept once, with
// blank fields filled from later sightings.
type scheduleCollector struct {
	teams    map[int64]usecase.ExternalTeam
	venues   map[int64]usecase.ExternalVenue
	fixtures map[int64]usecase.ExternalFixture
	skipped  int
}

func newScheduleCollector() *scheduleCollector {
	return &scheduleCollector{
		teams:    make(map[int64]usecase.ExternalTeam, 32),
		venues:   make(map[int64]usecase.ExternalVenue, 32),
		fixtures: make(map[int64]usecase.ExternalFixture, 512),
	}
}

func (c *scheduleCollector) add(roundName string, item scheduleFixture) {
	if item.ID <= 0 {
		c.skipped++
		return
	}

	ext := usecase.ExternalFixture{
		ExternalID:      item.ID,
		Round:           strings.TrimSpace(roundName),
		VenueExternalID: item.VenueID,
		Status:          fixtureStatus(item.StateID),
	}
	for _, p := range item.Participants {
		if p.ID <= 0 {
			continue
		}
		c.addTeam(usecase.ExternalTeam{
			ExternalID: p.ID,
			Name:       strings.TrimSpace(p.Name),
			Short:      strings.TrimSpace(p.ShortCode),
			ImageURL:   strings.TrimSpace(p.ImagePath),
			VenueID:    p.VenueID,
		})
		switch strings.ToLower(strings.TrimSpace(p.Meta.Location)) {
		case "home":
			ext.HomeTeamExternalID, ext.HomeTeamName = p.ID, strings.TrimSpace(p.Name)
		case "away":
			ext.AwayTeamExternalID, ext.AwayTeamName = p.ID, strings.TrimSpace(p.Name)
		}
	}

	if v := item.Venue; v.Set && v.Data.ID > 0 {
		ext.VenueExternalID = v.Data.ID
		c.venues[v.Data.ID] = usecase.ExternalVenue{
			ExternalID: v.Data.ID,
			Name:       strings.TrimSpace(v.Data.Name),
			City:       strings.TrimSpace(v.Data.CityName),
			Capacity:   v.Data.Capacity,
			ImageURL:   strings.TrimSpace(v.Data.ImagePath),
		}
	}
	if kickoff, ok := parseKickoff(item.StartingAt); ok {
		ext.KickoffAt = kickoff
	}
	c.fixtures[item.ID] = ext
}

func (c *scheduleCollector) addTeam(next usecase.ExternalTeam) {
	seen, ok := c.teams[next.ExternalID]
	if !ok {
		c.teams[next.ExternalID] = next
		return
	}
	seen.Name = firstNonEmpty(seen.Name, next.Name)
	seen.Short = firstNonEmpty(seen.Short, next.Short)
	seen.ImageURL = firstNonEmpty(seen.ImageURL, next.ImageURL)
	if seen.VenueID == 0 {
		seen.VenueID = next.VenueID
	}
	c.teams[next.ExternalID] = seen
}

// schedule returns teams and venues by external id, and fixtures by
// kickoff then external id, so imports replay in a stable order.
func (c *scheduleCollector) schedule(seasonID int64) usecase.ExternalSchedule {
	out := usecase.ExternalSchedule{
		SeasonID: seasonID,
		Teams:    make([]usecase.ExternalTeam, 0, len(c.teams)),
		Venues:   make([]usecase.ExternalVenue, 0, len(c.venues)),
		Fixtures: make([]usecase.ExternalFixture, 0, len(c.fixtures)),
	}
	for _, t := range c.teams {
		out.Teams = append(out.Teams, t)
	}
	for _, v := range c.venues {
		out.Venues = append(out.Venues, v)
	}
	for _, f := range c.fixtures {
		out.Fixtures = append(out.Fixtures, f)
	}

	sort.Slice(out.Teams, func(i, j int) bool { return out.Teams[i].ExternalID < out.Teams[j].ExternalID })
	sort.Slice(out.Venues, func(i, j int) bool { return out.Venues[i].ExternalID < out.Venues[j].ExternalID })
	sort.Slice(out.Fixtures, func(i, j int) bool {
		a, b := out.Fixtures[i], out.Fixtures[j]
		if !a.KickoffAt.Equal(b.KickoffAt) {
			return a.KickoffAt.Before(b.KickoffAt)
		}
		return a.ExternalID < b.ExternalID
	})
	return out
}

// fixtureStatus folds SportMonks state ids into fixture statuses. Unknown
// states count as scheduled so the fixture still gets imported.
func fixtureStatus(stateID int64) string {
	switch stateID {
	case 2, 3, 4, 6, 9, 21, 22, 25:
		return fixture.StatusLive
	case 5, 7, 8:
		return fixture.StatusFinished
	case 10:
		return fixture.StatusPostponed
	case 13, 14, 15, 16, 17:
		return fixture.StatusCancelled
	default:
		return fixture.StatusScheduled
	}
}

// parseKickoff reads starting_at, which SportMonks sends in UTC without a
// zone suffix.
func parseKickoff(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range kickoffLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type scheduleEnvelope struct {
	Data []struct {
		Rounds []struct {
			Name     string            `json:"name"`
			Fixtures []scheduleFixture `json:"fixtures"`
		} `json:"rounds"`
	} `json:"data"`
}

type scheduleFixture struct {
	ID           int64                  `json:"id"`
	StartingAt   string                 `json:"starting_at"`
	StateID      int64                  `json:"state_id"`
	VenueID      int64                  `json:"venue_id"`
	Venue        included[venuePayload] `json:"venue"`
	Participants []participantPayload   `json:"participants"`
}

type participantPayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortCode string `json:"short_code"`
	ImagePath string `json:"image_path"`
	VenueID   int64  `json:"venue_id"`
	Meta      struct {
		Location string `json:"location"`
	} `json:"meta"`
}

type venuePayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CityName  string `json:"city_name"`
	Capacity  int    `json:"capacity"`
	ImagePath string `json:"image_path"`
}

// included decodes an include that SportMonks sends either bare or wrapped
// in {"data": ...}. A null include leaves Set false.
type included[T any] struct {
	Data T
	Set  bool
}

func (r *included[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = included[T]{}
		return nil
	}

	var wrapped struct {
		Data *T `json:"data"`
	}
	if err := sonic.Unmarshal(data, &wrapped); err == nil && wrapped.Data != nil {
		r.Data, r.Set = *wrapped.Data, true
		return nil
	}
	if err := sonic.Unmarshal(data, &r.Data); err != nil {
		return err
	}
	r.Set = true
	return nil
}
