package model

// UTMParams is the marketing attribution bundle captured once per session.
type UTMParams struct {
	Source     string `json:"utm_source,omitempty"`
	Medium     string `json:"utm_medium,omitempty"`
	Campaign   string `json:"utm_campaign,omitempty"`
	Term       string `json:"utm_term,omitempty"`
	Content    string `json:"utm_content,omitempty"`
	FirstVisit string `json:"first_visit,omitempty"`
	Referrer   string `json:"referrer,omitempty"`
}

// IsEmpty reports whether no utm_* value is set. FirstVisit and Referrer are
// bookkeeping and do not count as attribution.
func (u UTMParams) IsEmpty() bool {
	return u.Source == "" && u.Medium == "" && u.Campaign == "" && u.Term == "" && u.Content == ""
}

// IsComplete reports whether source, medium and campaign are all present.
func (u UTMParams) IsComplete() bool {
	return u.Source != "" && u.Medium != "" && u.Campaign != ""
}

// Merge returns u overlaid with the non-empty utm_* values of newer.
// FirstVisit and Referrer are kept from u when already set.
func (u UTMParams) Merge(newer UTMParams) UTMParams {
	out := u
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&out.Source, newer.Source)
	overlay(&out.Medium, newer.Medium)
	overlay(&out.Campaign, newer.Campaign)
	overlay(&out.Term, newer.Term)
	overlay(&out.Content, newer.Content)
	if out.FirstVisit == "" {
		out.FirstVisit = newer.FirstVisit
	}
	if out.Referrer == "" {
		out.Referrer = newer.Referrer
	}
	return out
}
