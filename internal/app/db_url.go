package app

import (
	"net/url"
	"strings"
)

// dbURL wraps DB_URL. lib/pq accepts both the URL form and the key=value
// form, so every accessor handles both.
type dbURL struct {
	raw    string
	parsed *url.URL
}

func parseDBURL(raw string) dbURL {
	raw = strings.TrimSpace(raw)
	out := dbURL{raw: raw}
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		out.parsed = parsed
	}
	return out
}

// DSN returns the connection string handed to the driver. With binary
// results disabled, pooled connections behind pgbouncer do not trip over
// cached prepared statements. An explicit value in the URL wins.
func (d dbURL) DSN(disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult || d.parsed == nil {
		return d.raw
	}
	query := d.parsed.Query()
	if query.Get("disable_prepared_binary_result") != "" {
		return d.raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	copied := *d.parsed
	copied.RawQuery = query.Encode()
	return copied.String()
}

func (d dbURL) Name() string {
	if d.parsed != nil {
		return strings.TrimSpace(strings.TrimPrefix(d.parsed.Path, "/"))
	}
	return d.keyword("dbname")
}

func (d dbURL) Host() string {
	if d.parsed != nil {
		return d.parsed.Host
	}
	host := d.keyword("host")
	if port := d.keyword("port"); host != "" && port != "" {
		return host + ":" + port
	}
	return host
}

func (d dbURL) keyword(key string) string {
	prefix := key + "="
	for _, token := range strings.Fields(d.raw) {
		if strings.HasPrefix(token, prefix) {
			return strings.Trim(strings.TrimPrefix(token, prefix), `"'`)
		}
	}
	return ""
}
