package usecase

import (
	"net/url"
	"strings"
)

// AppendAffiliateParams adds the partner query string to a product URL,
// joining with "?" or "&" as needed. Empty URLs stay empty.
func AppendAffiliateParams(rawURL, params string) string {
	rawURL = strings.TrimSpace(rawURL)
	params = strings.TrimLeft(strings.TrimSpace(params), "?&")
	if rawURL == "" || params == "" {
		return rawURL
	}
	if strings.Contains(rawURL, params) {
		return rawURL
	}
	separator := "?"
	if strings.Contains(rawURL, "?") {
		separator = "&"
	}
	return rawURL + separator + params
}

// WrapAffiliateRedirect prefixes a product URL with a click-tracking
// redirect, escaping the destination. URLs already pointing at the
// tracking host are returned unchanged.
func WrapAffiliateRedirect(rawURL, prefix string) string {
	rawURL = strings.TrimSpace(rawURL)
	prefix = strings.TrimSpace(prefix)
	if rawURL == "" || prefix == "" {
		return rawURL
	}
	if host := affiliateHost(prefix); host != "" && strings.Contains(rawURL, host) {
		return rawURL
	}
	return prefix + url.QueryEscape(rawURL)
}

func affiliateHost(prefix string) string {
	parsed, err := url.Parse(prefix)
	if err != nil {
		return ""
	}
	return parsed.Host
}
