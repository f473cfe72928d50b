package usecase

import "testing"

func TestAppendAffiliateParams(t *testing.T) {
	t.Parallel()

	const params = "tap_a=141252-18675a&tap_s=8995852-00a564"
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "no query", url: "https://www.hellotickets.com/arsenal", want: "https://www.hellotickets.com/arsenal?" + params},
		{name: "existing query", url: "https://www.hellotickets.com/arsenal?lang=en", want: "https://www.hellotickets.com/arsenal?lang=en&" + params},
		{name: "already tagged", url: "https://www.hellotickets.com/arsenal?" + params, want: "https://www.hellotickets.com/arsenal?" + params},
		{name: "empty url", url: "  ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AppendAffiliateParams(tt.url, params); got != tt.want {
				t.Fatalf("AppendAffiliateParams(%q)=%q want=%q", tt.url, got, tt.want)
			}
		})
	}
}

func TestWrapAffiliateRedirect(t *testing.T) {
	t.Parallel()

	const prefix = "https://prf.hn/click/camref:1100l5Y/destination:"
	got := WrapAffiliateRedirect("https://www.p1travel.com/en/football?id=7", prefix)
	want := prefix + "https%3A%2F%2Fwww.p1travel.com%2Fen%2Ffootball%3Fid%3D7"
	if got != want {
		t.Fatalf("unexpected wrapped url: %q", got)
	}

	if again := WrapAffiliateRedirect(got, prefix); again != got {
		t.Fatalf("expected already wrapped url to stay unchanged, got %q", again)
	}
}
