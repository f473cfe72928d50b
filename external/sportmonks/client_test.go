package sportmonks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

func TestFetchSeasonSchedule_FlattensTeamsVenuesAndFixtures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedules/seasons/25646" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_token") != "secret" {
			t.Errorf("api token not sent")
		}
		_, _ = w.Write([]byte(`{"data":[{"rounds":[{"name":"24","fixtures":[
			{"id":9001,"starting_at":"2026-02-28 17:30:00","state_id":1,"venue_id":1031,
			 "venue":{"data":{"id":1031,"name":"Signal Iduna Park","city_name":"Dortmund","capacity":81365}},
			 "participants":[
				{"id":68,"name":"Borussia Dortmund","short_code":"BVB","venue_id":1031,"meta":{"location":"home"}},
				{"id":503,"name":"FC Bayern München","short_code":"FCB","venue_id":1160,"meta":{"location":"away"}}
			 ]},
			{"id":9000,"starting_at":"2026-02-21 14:30:00","state_id":5,"venue_id":1160,"venue":null,
			 "participants":[
				{"id":503,"name":"FC Bayern München","meta":{"location":"home"}},
				{"id":68,"name":"Borussia Dortmund","meta":{"location":"away"}}
			 ]}
		]}]}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Token: "secret", Logger: logging.NewNop()})
	schedule, err := client.FetchSeasonSchedule(context.Background(), 25646)
	if err != nil {
		t.Fatalf("fetch schedule: %v", err)
	}

	if len(schedule.Teams) != 2 || schedule.Teams[0].ExternalID != 68 || schedule.Teams[1].Short != "FCB" {
		t.Fatalf("unexpected teams: %+v", schedule.Teams)
	}
	if schedule.Teams[1].VenueID != 1160 {
		t.Fatalf("expected bayern venue id 1160, got=%d", schedule.Teams[1].VenueID)
	}
	if len(schedule.Venues) != 1 || schedule.Venues[0].City != "Dortmund" {
		t.Fatalf("unexpected venues: %+v", schedule.Venues)
	}
	if len(schedule.Fixtures) != 2 {
		t.Fatalf("expected 2 fixtures, got=%d", len(schedule.Fixtures))
	}

	first := schedule.Fixtures[0]
	if first.ExternalID != 9000 || first.Status != "FINISHED" || first.VenueExternalID != 1160 {
		t.Fatalf("unexpected first fixture: %+v", first)
	}
	second := schedule.Fixtures[1]
	wantKickoff := time.Date(2026, 2, 28, 17, 30, 0, 0, time.UTC)
	if !second.KickoffAt.Equal(wantKickoff) || second.HomeTeamExternalID != 68 || second.AwayTeamExternalID != 503 {
		t.Fatalf("unexpected second fixture: %+v", second)
	}
	if second.Round != "24" || second.Status != "SCHEDULED" {
		t.Fatalf("unexpected round/status: %+v", second)
	}
}

func TestSanitizeSensitiveText_RedactsToken(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`Get "https://api/x?api_token=abc123&include=a": timeout`, "abc123")
	if strings.Contains(got, "abc123") {
		t.Fatalf("token leaked: %s", got)
	}
}

func TestRedactAPIURL(t *testing.T) {
	t.Parallel()

	got := redactAPIURL("https://api.sportmonks.com/v3/football/schedules?api_token=abc&include=x")
	if strings.Contains(got, "abc") || !strings.Contains(got, "api_token=REDACTED") {
		t.Fatalf("unexpected redacted url: %s", got)
	}
}
