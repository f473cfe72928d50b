package workerrun

import "time"

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// MaxDetails caps the per-match details kept on a run.
const MaxDetails = 100

// Run is one pass of a worker over one league.
type Run struct {
	ID           string     `json:"id"`
	Worker       string     `json:"worker"`
	LeagueSlug   string     `json:"league_slug"`
	Status       Status     `json:"status"`
	Stats        Stats      `json:"stats"`
	ErrorMessage string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	TraceID      string     `json:"trace_id,omitempty"`
}

// Stats counts what a league pass did. Every per-item failure increments
// Errors; the pass itself keeps going.
type Stats struct {
	APICalls          int      `json:"api_calls"`
	TeamsFetched      int      `json:"teams_fetched"`
	TeamFetchFailures int      `json:"team_fetch_failures"`
	PerformancesFound int      `json:"performances_found"`
	MatchesUpdated    int      `json:"matches_updated"`
	MatchesSkipped    int      `json:"matches_skipped"`
	MatchesNotFound   int      `json:"matches_not_found"`
	OffersCreated     int      `json:"offers_created"`
	OffersUpdated     int      `json:"offers_updated"`
	OffersSkipped     int      `json:"offers_skipped"`
	MinPriceUpdates   int      `json:"min_price_updates"`
	TeamMappings      int      `json:"team_mappings_written"`
	Unmatched         int      `json:"unmatched,omitempty"`
	Errors            int      `json:"errors"`
	Details           []Detail `json:"details,omitempty"`
}

// Detail describes what happened to one fixture.
type Detail struct {
	FixtureID     string   `json:"fixture_id,omitempty"`
	Reference     string   `json:"reference"`
	Action        string   `json:"action"`
	ChangedFields []string `json:"changed_fields,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// AddDetail appends d unless MaxDetails has been reached.
func (s *Stats) AddDetail(d Detail) {
	if len(s.Details) >= MaxDetails {
		return
	}
	s.Details = append(s.Details, d)
}

// Writes is the number of repository writes the pass performed.
func (s Stats) Writes() int {
	return s.MatchesUpdated + s.OffersCreated + s.OffersUpdated + s.MinPriceUpdates + s.TeamMappings
}

// Add accumulates other into s, keeping s's details cap.
func (s *Stats) Add(other Stats) {
	s.APICalls += other.APICalls
	s.TeamsFetched += other.TeamsFetched
	s.TeamFetchFailures += other.TeamFetchFailures
	s.PerformancesFound += other.PerformancesFound
	s.MatchesUpdated += other.MatchesUpdated
	s.MatchesSkipped += other.MatchesSkipped
	s.MatchesNotFound += other.MatchesNotFound
	s.OffersCreated += other.OffersCreated
	s.OffersUpdated += other.OffersUpdated
	s.OffersSkipped += other.OffersSkipped
	s.MinPriceUpdates += other.MinPriceUpdates
	s.TeamMappings += other.TeamMappings
	s.Unmatched += other.Unmatched
	s.Errors += other.Errors
	for _, d := range other.Details {
		s.AddDetail(d)
	}
}
