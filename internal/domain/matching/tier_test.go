package matching

import "testing"

func TestTier_AutoWritable(t *testing.T) {
	t.Parallel()

	writable := map[Tier]bool{
		ExactMatch:      true,
		NormalizedMatch: true,
		RemappedMatch:   true,
		HeuristicMatch:  false,
		NoMatch:         false,
	}
	for tier, want := range writable {
		if got := tier.AutoWritable(); got != want {
			t.Fatalf("%s.AutoWritable(): got=%v want=%v", tier, got, want)
		}
	}
	if Tier("").Found() {
		t.Fatalf("zero tier must not be found")
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b   string
		minLen int
		want   bool
	}{
		{a: "arsenal", b: "arsenal", minLen: 4, want: true},
		{a: "dortmund", b: "borussia dortmund", minLen: 4, want: true},
		{a: "borussia dortmund", b: "dortmund", minLen: 4, want: true},
		{a: "ac", b: "chelsea", minLen: 4, want: false},
		{a: "ham", b: "west ham", minLen: 4, want: false},
		{a: "ham", b: "west ham", minLen: 0, want: true},
		{a: "", b: "anything", minLen: 0, want: false},
	}
	for _, tc := range cases {
		if got := Contains(tc.a, tc.b, tc.minLen); got != tc.want {
			t.Fatalf("Contains(%q, %q, %d): got=%v want=%v", tc.a, tc.b, tc.minLen, got, tc.want)
		}
	}
}

func TestTrailingName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Borussia Dortmund":    "Dortmund",
		"Tottenham Hotspur FC": "Tottenham",
		"Real Madrid CF":       "Madrid",
		"olympique lyon":       "",
		"":                     "",
	}
	for in, want := range cases {
		if got := TrailingName(in); got != want {
			t.Fatalf("TrailingName(%q): got=%q want=%q", in, got, want)
		}
	}
}
