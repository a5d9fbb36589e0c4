package sources

import (
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// RootDomain extracts the registrable domain from an evidence URL.
// e.g. "https://factcheck.example.co.uk/article/42" -> "example.co.uk", true
func RootDomain(raw string) (string, bool) {
	host := raw

	// A bare domain without a scheme makes url.Parse miss the host.
	if !strings.Contains(raw, "://") && strings.Contains(raw, ".") {
		raw = "http://" + raw
	}

	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Hostname()
	} else {
		host = strings.Split(host, "/")[0]
		host = strings.Split(host, ":")[0]
		if !strings.Contains(host, ".") {
			return "", false
		}
	}

	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return "", false
	}
	return domain, true
}
