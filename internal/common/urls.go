package common

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters stripped during canonicalization.
var trackingParams = map[string]bool{
	"fbclid":       true,
	"gclid":        true,
	"msclkid":      true,
	"igshid":       true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"ref_src":      true,
	"spm":          true,
	"utm_campaign": true,
	"utm_content":  true,
	"utm_medium":   true,
	"utm_source":   true,
	"utm_term":     true,
}

// CanonicalizeURL normalizes a URL for use as the catalog unique key:
// lowercase scheme and host, fragment removed, tracking query parameters
// stripped, remaining parameters sorted, and the trailing slash collapsed.
// The operation is idempotent.
func CanonicalizeURL(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		query := u.Query()
		keys := make([]string, 0, len(query))
		for k := range query {
			if trackingParams[strings.ToLower(k)] {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		values := url.Values{}
		for _, k := range keys {
			values[k] = query[k]
		}
		u.RawQuery = values.Encode()
	}

	if u.Path == "/" || u.Path == "" {
		u.Path = ""
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}

// SiteNameFromURL derives a human-readable site label from a URL host.
// "https://www.streameast.app/nfl" becomes "Streameast".
func SiteNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	domain := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "m.", "mobile."} {
		if strings.HasPrefix(domain, prefix) {
			domain = strings.TrimPrefix(domain, prefix)
			break
		}
	}

	parts := strings.Split(domain, ".")
	name := domain
	if len(parts) >= 2 {
		name = parts[0]
	}
	if name == "" {
		return rawURL
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// ExtractHost returns the lowercase host portion of a URL, or "" when the
// URL cannot be parsed.
func ExtractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
