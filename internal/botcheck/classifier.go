// Package botcheck decides whether an incoming tracked-link request looks
// like a human in a browser or an automated fetch (crawler, link-preview
// unfurler, HTTP client library). The heuristic is deliberately conservative:
// challenging a human is acceptable, crediting a click to a bot is not.
package botcheck

import "strings"

type Mode string

const (
	// ModeDirect counts the click immediately and redirects.
	ModeDirect Mode = "direct"
	// ModeChallenge defers crediting until a script-driven confirmation.
	ModeChallenge Mode = "challenge"
)

// RequestMeta is the slice of request metadata the classifier looks at.
type RequestMeta struct {
	Method         string // HTTP method
	UserAgent      string
	AcceptLanguage string // empty when the header is absent
	Purpose        string // Sec-Purpose / X-Purpose prefetch hint
	SecFetchSite   string // Sec-Fetch-Site fetch metadata
	IP             string
}

type Decision struct {
	Mode   Mode
	Reason string
}

// Substring signatures of known automation. Matched case-insensitively
// against the User-Agent.
var botSignatures = []string{
	"bot", "crawler", "spider", "crawling",
	"curl", "wget", "python-requests", "python/", "go-http-client",
	"okhttp", "java/", "libwww", "httpclient", "aiohttp",
	"slackbot", "twitterbot", "facebookexternalhit", "linkedinbot",
	"telegrambot", "discordbot", "whatsapp", "skypeuripreview",
	"bingpreview", "googlebot", "yandex", "baiduspider", "duckduckbot",
	"headlesschrome", "phantomjs", "selenium", "playwright", "puppeteer",
	"preview", "validator", "monitoring", "pingdom", "uptimerobot",
}

// Classify is a pure function: identical metadata always yields the same
// decision. Rules are evaluated in order, first match wins.
func Classify(meta RequestMeta) Decision {
	if strings.EqualFold(meta.Method, "HEAD") {
		return Decision{Mode: ModeChallenge, Reason: "HEAD request"}
	}

	ua := strings.ToLower(meta.UserAgent)
	for _, sig := range botSignatures {
		if strings.Contains(ua, sig) {
			return Decision{Mode: ModeChallenge, Reason: "user-agent signature: " + sig}
		}
	}

	if meta.AcceptLanguage == "" {
		return Decision{Mode: ModeChallenge, Reason: "missing accept-language"}
	}

	purpose := strings.ToLower(meta.Purpose)
	if strings.Contains(purpose, "prefetch") || strings.Contains(purpose, "preview") {
		return Decision{Mode: ModeChallenge, Reason: "prefetch purpose"}
	}

	if strings.EqualFold(meta.SecFetchSite, "none") {
		return Decision{Mode: ModeChallenge, Reason: "cross-site fetch metadata none"}
	}

	return Decision{Mode: ModeDirect, Reason: "browser-like request"}
}
