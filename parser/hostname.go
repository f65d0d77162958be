package parser

import (
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/edgereport/models"
)

// URL-bearing fields searched for hostname derivation, in priority order.
var hostnameSources = []string{"hostname.url", "url", "request.url"}

// HostResolver derives hostnames from URL-bearing record fields. Extraction
// results are memoized because most rows in a batch share a handful of hosts.
type HostResolver struct {
	cache *lru.Cache[string, string]
}

// NewHostResolver builds a resolver with a bounded memoization cache.
func NewHostResolver() *HostResolver {
	cache, _ := lru.New[string, string](1024)
	return &HostResolver{cache: cache}
}

// EnsureHostname fills the hostname field on records that lack one,
// using the first non-empty URL-bearing field. Idempotent.
func (r *HostResolver) EnsureHostname(records []models.Record) {
	for _, rec := range records {
		if hasHostname(rec) {
			continue
		}
		for _, key := range hostnameSources {
			value, ok := rec[key].(string)
			if !ok || value == "" {
				continue
			}
			rec["hostname"] = r.resolve(value)
			break
		}
	}
}

func (r *HostResolver) resolve(value string) string {
	if host, ok := r.cache.Get(value); ok {
		return host
	}
	host := ExtractHostname(value)
	r.cache.Add(value, host)
	return host
}

// ExtractHostname pulls the host out of a URL-ish string: full URL parsing
// when a scheme is present, otherwise strip a leading "//" and cut at the
// first path separator.
func ExtractHostname(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if strings.Contains(v, "://") {
		if parsed, err := url.Parse(v); err == nil {
			return parsed.Host
		}
	}
	v = strings.TrimPrefix(v, "//")
	host, _, _ := strings.Cut(v, "/")
	return host
}

func hasHostname(rec models.Record) bool {
	switch v := rec["hostname"].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	default:
		return true
	}
}
