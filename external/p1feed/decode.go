package p1feed

import (
	"context"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

const defaultCurrency = "EUR"

type productXML struct {
	Brand         string `xml:"brand"`
	Category      string `xml:"category"`
	CategoryPath  string `xml:"categoryPath"`
	Subcategories string `xml:"subcategories"`
	HomeTeamName  string `xml:"home_team_name"`
	AwayTeamName  string `xml:"away_team_name"`
	DateStart     string `xml:"date_start"`
	Price         string `xml:"price"`
	Currency      string `xml:"currency"`
	ProductURL    string `xml:"productURL"`
	ExtraInfo     string `xml:"extraInfo"`
}

// DecodeXML streams <product> elements from r without loading the document.
// Products with an unparseable price are skipped.
func DecodeXML(ctx context.Context, r io.Reader, visit func(usecase.FeedProduct) error) error {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read feed token: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "product" {
			continue
		}
		var raw productXML
		if err := decoder.DecodeElement(&raw, &start); err != nil {
			return fmt.Errorf("decode product: %w", err)
		}
		product, ok := raw.toProduct()
		if !ok {
			continue
		}
		if err := visit(product); err != nil {
			return err
		}
	}
}

// DecodeCSV reads a feed dump with a header row. Column names match the
// XML element names.
func DecodeCSV(ctx context.Context, r io.Reader, visit func(usecase.FeedProduct) error) error {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read feed header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read feed line %d: %w", line, err)
		}
		raw := productXML{
			Brand:         field(record, "brand"),
			Category:      field(record, "category"),
			CategoryPath:  field(record, "categoryPath"),
			Subcategories: field(record, "subcategories"),
			HomeTeamName:  field(record, "home_team_name"),
			AwayTeamName:  field(record, "away_team_name"),
			DateStart:     field(record, "date_start"),
			Price:         field(record, "price"),
			Currency:      field(record, "currency"),
			ProductURL:    field(record, "productURL"),
			ExtraInfo:     field(record, "extraInfo"),
		}
		product, ok := raw.toProduct()
		if !ok {
			continue
		}
		if err := visit(product); err != nil {
			return err
		}
	}
}

func (p productXML) toProduct() (usecase.FeedProduct, bool) {
	price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
	if err != nil {
		return usecase.FeedProduct{}, false
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	subcategory := strings.ToLower(strings.TrimSpace(p.Subcategories))
	path := strings.TrimSpace(p.CategoryPath)
	if subcategory == "" && strings.Contains(strings.ToLower(path), "football") {
		subcategory = "football"
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = leagueFromCategoryPath(path)
	}

	return usecase.FeedProduct{
		Brand:        strings.TrimSpace(p.Brand),
		Category:     category,
		Subcategory:  subcategory,
		HomeTeamName: strings.TrimSpace(p.HomeTeamName),
		AwayTeamName: strings.TrimSpace(p.AwayTeamName),
		DateStart:    strings.TrimSpace(p.DateStart),
		Price:        price,
		Currency:     currency,
		ProductURL:   strings.TrimSpace(p.ProductURL),
		ExtraInfo:    strings.TrimSpace(p.ExtraInfo),
	}, true
}

// leagueFromCategoryPath picks the league out of
// "event tickets > football > <league> > <team>".
func leagueFromCategoryPath(path string) string {
	parts := strings.Split(path, ">")
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[2])
}
