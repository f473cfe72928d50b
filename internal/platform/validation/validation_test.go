package validation

import (
	"strings"
	"testing"
)

type sample struct {
	URL    string `validate:"httpurl"`
	Color  string `validate:"omitempty,hexcolor"`
	Amount int    `validate:"gte=1"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	if err := Struct(sample{URL: "https://example.com/a", Color: "#ff0000", Amount: 1}); err != nil {
		t.Fatalf("expected valid sample, got %v", err)
	}
	if err := Struct(sample{Amount: 3}); err != nil {
		t.Fatalf("empty url should be allowed, got %v", err)
	}

	err := Struct(sample{URL: "ftp://example.com", Color: "red", Amount: 0})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"sample.URL failed httpurl", "sample.Color failed hexcolor", "sample.Amount failed gte=1"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}
