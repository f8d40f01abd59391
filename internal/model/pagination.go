package model

// Default page values applied when a listing request omits or zeroes them.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{Page: page, Limit: limit, Total: total, Pages: PageCount(total, limit)}
}

// PageCount is ceil(total/limit), or 0 when limit is not positive.
func PageCount(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ListFilters narrows a listing by attribution. Values match as substrings.
type ListFilters struct {
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
}

// ListQuery is the payload of the get_onboardings and get_contacts services.
type ListQuery struct {
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	Filters ListFilters `json:"filters"`
}

// Normalize applies defaults and clamps the limit.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Offset is the number of rows skipped before this page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// OnboardingPage is one page of leads.
type OnboardingPage struct {
	Data       []OnboardingRecord `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

// ContactPage is one page of contact submissions.
type ContactPage struct {
	Data       []ContactFormRecord `json:"data"`
	Pagination Pagination          `json:"pagination"`
}
