// Package authority parses authority URLs and resolves their OAuth endpoints
// through OIDC discovery, caching successful results per authority.
package authority

import (
	"fmt"
	"net/url"
	"strings"
)

// Authority identifies one token issuer: a host plus a tenant (realm).
type Authority struct {
	// URL is the canonical authority URL, e.g.
	// https://login.example.com/common.
	URL string
	// Host is the lower-cased environment host.
	Host string
	// Tenant is the realm segment: a tenant id, "common", "organizations",
	// "consumers", or "adfs".
	Tenant string
	// Type tags the flavor of authority for account records.
	Type string
}

// Authority type tags.
const (
	TypeAAD  = "MSSTS"
	TypeADFS = "ADFS"
	TypeB2C  = "B2C"
)

// Parse validates and canonicalizes an authority URL. The URL must be https
// and carry the tenant as its first path segment.
func Parse(raw string) (Authority, error) {
	u, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return Authority{}, fmt.Errorf("invalid authority URL %q: %w", raw, err)
	}
	if u.Scheme != "https" {
		return Authority{}, fmt.Errorf("invalid authority URL %q: must use https", raw)
	}
	if u.Host == "" {
		return Authority{}, fmt.Errorf("invalid authority URL %q: missing host", raw)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return Authority{}, fmt.Errorf("invalid authority URL %q: missing tenant segment", raw)
	}
	tenant := segments[0]

	host := strings.ToLower(u.Host)
	a := Authority{
		URL:    "https://" + host + "/" + tenant,
		Host:   host,
		Tenant: tenant,
		Type:   TypeAAD,
	}
	if tenant == "adfs" {
		a.Type = TypeADFS
	} else if strings.Contains(host, ".b2clogin.") {
		a.Type = TypeB2C
	}
	return a, nil
}

// Endpoints are the resolved OAuth endpoints for one authority, plus the set
// of host aliases the cache treats as the same environment.
type Endpoints struct {
	Issuer                string
	AuthorizationEndpoint string
	TokenEndpoint         string
	DeviceCodeEndpoint    string
	Aliases               []string
}

// knownAliases maps well-known authority hosts to the full alias set shared
// by caches written against older endpoint names.
var knownAliases = map[string][]string{
	"login.microsoftonline.com": {"login.microsoftonline.com", "login.windows.net", "login.microsoft.com", "sts.windows.net"},
	"login.windows.net":         {"login.microsoftonline.com", "login.windows.net", "login.microsoft.com", "sts.windows.net"},
	"login.microsoft.com":       {"login.microsoftonline.com", "login.windows.net", "login.microsoft.com", "sts.windows.net"},
	"sts.windows.net":           {"login.microsoftonline.com", "login.windows.net", "login.microsoft.com", "sts.windows.net"},
}

// AliasesFor returns every host treated as equivalent to the given one. An
// unknown host is its own only alias.
func AliasesFor(host string) []string {
	if aliases, ok := knownAliases[host]; ok {
		return aliases
	}
	return []string{host}
}
