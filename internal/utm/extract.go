package utm

import (
	"net/url"
	"strings"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

// Mode selects how partial attribution is treated.
type Mode int

const (
	// Strict discards the bundle unless source, medium and campaign are all present.
	Strict Mode = iota
	// Lenient keeps whatever subset is present.
	Lenient
)

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParseMode maps a config value onto a Mode; anything unknown is Strict.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "lenient") {
		return Lenient
	}
	return Strict
}

// ExtractFromURL reads the utm_* parameters from a query string. search may be
// a bare query ("utm_source=x"), a search string ("?utm_source=x") or a full URL.
// Malformed input yields an empty bundle.
func ExtractFromURL(search string, mode Mode) model.UTMParams {
	query := search
	if i := strings.IndexByte(query, '?'); i >= 0 {
		query = query[i+1:]
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return model.UTMParams{}
	}

	p := model.UTMParams{
		Source:   values.Get("utm_source"),
		Medium:   values.Get("utm_medium"),
		Campaign: values.Get("utm_campaign"),
		Term:     values.Get("utm_term"),
		Content:  values.Get("utm_content"),
	}
	if mode == Strict && !p.IsComplete() {
		return model.UTMParams{}
	}
	return p
}
