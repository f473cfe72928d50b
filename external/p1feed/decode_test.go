package p1feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<products>
  <product>
    <brand>Wolves</brand>
    <subcategories>football</subcategories>
    <home_team_name>Wolverhampton Wanderers</home_team_name>
    <away_team_name>Arsenal</away_team_name>
    <date_start>2026-03-14 15:00:00</date_start>
    <price>129.00</price>
    <productURL>https://p1travel.com/en/football/wolves-arsenal</productURL>
    <extraInfo>Ticket type: Hospitality ticket | Seating plan: Lower tier</extraInfo>
  </product>
  <product>
    <brand>Wolves</brand>
    <subcategories>football</subcategories>
    <price>not-a-price</price>
  </product>
  <other><price>1</price></other>
</products>`

func collect(t *testing.T, decode func(context.Context, func(usecase.FeedProduct) error) error) []usecase.FeedProduct {
	t.Helper()
	var out []usecase.FeedProduct
	err := decode(context.Background(), func(p usecase.FeedProduct) error {
		out = append(out, p)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestDecodeXML_StreamsProducts(t *testing.T) {
	t.Parallel()

	products := collect(t, func(ctx context.Context, visit func(usecase.FeedProduct) error) error {
		return DecodeXML(ctx, strings.NewReader(sampleFeed), visit)
	})

	require.Len(t, products, 1)
	got := products[0]
	require.Equal(t, "Wolves", got.Brand)
	require.Equal(t, "football", got.Subcategory)
	require.Equal(t, "Wolverhampton Wanderers", got.HomeTeamName)
	require.Equal(t, "2026-03-14 15:00:00", got.DateStart)
	require.Equal(t, "129", got.Price.String())
	require.Equal(t, "EUR", got.Currency)
	require.Contains(t, got.ExtraInfo, "Hospitality ticket")
}

func TestDecodeCSV_ReadsHeaderColumnsAndCategoryPath(t *testing.T) {
	t.Parallel()

	csvData := "\ufeffbrand,categoryPath,home_team_name,away_team_name,date_start,price,productURL,extraInfo\n" +
		"Chelsea,Event Tickets > Football > Premier League > Chelsea,Chelsea,Arsenal,2026-04-04,\"210.5\",https://p1travel.com/x,\n" +
		"Chelsea,Event Tickets > Football > Premier League > Chelsea,Chelsea,Arsenal,2026-04-04,,https://p1travel.com/y,\n"

	products := collect(t, func(ctx context.Context, visit func(usecase.FeedProduct) error) error {
		return DecodeCSV(ctx, strings.NewReader(csvData), visit)
	})

	require.Len(t, products, 1)
	require.Equal(t, "Chelsea", products[0].Brand)
	require.Equal(t, "Premier League", products[0].Category)
	require.Equal(t, "football", products[0].Subcategory)
	require.Equal(t, "210.5", products[0].Price.String())
}

func TestFileSource_PicksDecoderByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFeed), 0o600))

	products := collect(t, NewFileSource(path).Products)
	require.Len(t, products, 1)
}

func TestURLSource_DownloadsFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	source := NewURLSource(URLSourceConfig{URL: server.URL, Logger: logging.NewNop()})
	products := collect(t, source.Products)
	require.Len(t, products, 1)
}

func TestURLSource_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	source := NewURLSource(URLSourceConfig{URL: server.URL, MaxRetries: 2, Logger: logging.NewNop()})
	err := source.Products(context.Background(), func(usecase.FeedProduct) error { return nil })
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
