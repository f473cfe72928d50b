package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "slug").
		From("teams").
		Where(Any("league_ids", "lg-1"), IsNull("deleted_at")).
		OrderBy("slug").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, slug FROM teams WHERE $1 = ANY(league_ids) AND deleted_at IS NULL ORDER BY slug LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "lg-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_WindowWithBothPairings(t *testing.T) {
	from := time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	query, args, err := Select("*").
		From("fixtures").
		Where(
			Eq("league_id", "bundesliga"),
			Gte("kickoff_at", from),
			Lte("kickoff_at", to),
			Or(
				All(Eq("home_team_id", "bvb"), Eq("away_team_id", "fcb")),
				All(Eq("home_team_id", "fcb"), Eq("away_team_id", "bvb")),
			),
		).
		OrderBy("kickoff_at").
		ForUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM fixtures WHERE league_id = $1 AND kickoff_at >= $2 AND kickoff_at <= $3 AND " +
		"((home_team_id = $4 AND away_team_id = $5) OR (home_team_id = $6 AND away_team_id = $7)) ORDER BY kickoff_at FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 7 || args[3] != "bvb" || args[6] != "bvb" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyOrNeverMatches(t *testing.T) {
	query, _, err := Select("id").From("offers").Where(Or()).Offset(20).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM offers WHERE 1=0 OFFSET 20" {
		t.Fatalf("unexpected query: %s", query)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("suppliers").
		Columns("id", "slug").
		Values("s1", "hellotickets").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO suppliers (id, slug) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "s1" || args[1] != "hellotickets" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel_OnConflictUpdate(t *testing.T) {
	type venueRow struct {
		ID              string `db:"id"`
		ExternalVenueID int64  `db:"external_venue_id"`
		NameEN          string `db:"name_en"`
		internal        string
		Skipped         string `db:"-"`
	}

	suffix := OnConflictUpdate("external_venue_id", "name_en")
	query, args, err := InsertModel("venues", venueRow{ID: "v1", ExternalVenueID: 19, NameEN: "Anfield"}, suffix)
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO venues (id, external_venue_id, name_en) VALUES ($1, $2, $3) " +
		"ON CONFLICT (external_venue_id) DO UPDATE SET name_en = EXCLUDED.name_en, updated_at = NOW()"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("offers").
		Set("price", "120.00").
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "o1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE offers SET price = $1, updated_at = NOW() WHERE id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "120.00" || args[1] != "o1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateModel(t *testing.T) {
	type offerRow struct {
		Price       string `db:"price"`
		IsAvailable bool   `db:"is_available"`
		ignored     int
	}

	b, err := UpdateModel("offers", offerRow{Price: "89.50", IsAvailable: true})
	if err != nil {
		t.Fatalf("build update model: %v", err)
	}
	query, args, err := b.SetExpr("updated_at", "NOW()").Where(Eq("public_id", "o1")).ToSQL()
	if err != nil {
		t.Fatalf("build update model query: %v", err)
	}

	wantQuery := "UPDATE offers SET price = $1, is_available = $2, updated_at = NOW() WHERE public_id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "89.50" || args[1] != true || args[2] != "o1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, err := UpdateModel("offers", struct{ ignored int }{}); err == nil {
		t.Fatalf("expected error for model without columns")
	}
}
