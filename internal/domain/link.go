package domain

// CreationRequest is the body of POST /api/shorten.
// ExpiresAt is nil when the backend default expiry should apply; it is
// always encoded, as null in that case.
type CreationRequest struct {
	URL         string  `json:"url"`
	CustomAlias string  `json:"customAlias"`
	ExpiresAt   *string `json:"expiresAt"`
}

// CreationResult is the backend's answer to a successful creation.
// QRCode is an image data reference (typically a data: URL).
type CreationResult struct {
	Code        string `json:"code"`
	ShortURL    string `json:"shortUrl"`
	OriginalURL string `json:"originalUrl"`
	ExpiresAt   string `json:"expiresAt"`
	QRCode      string `json:"qrCode"`
}

// LinkSummary is one row of GET /api/links.
type LinkSummary struct {
	Code           string `json:"code"`
	OriginalURL    string `json:"originalUrl"`
	CreatedAt      string `json:"createdAt,omitempty"`
	ExpiresAt      string `json:"expiresAt"`
	TotalClicks    int64  `json:"totalClicks"`
	UniqueVisitors int64  `json:"uniqueVisitors"`
}

// LinkDetail is the body of GET /api/links/{code}.
// An empty LastAccessed means the link was never visited.
type LinkDetail struct {
	LinkSummary
	ShortURL      string           `json:"shortUrl"`
	LastAccessed  string           `json:"lastAccessed"`
	CountryCounts map[string]int64 `json:"countryCounts"`
	QRCode        string           `json:"qrCode"`
}

// Clone creates a deep copy of the detail.
func (d *LinkDetail) Clone() *LinkDetail {
	if d == nil {
		return nil
	}
	c := *d
	if d.CountryCounts != nil {
		c.CountryCounts = make(map[string]int64, len(d.CountryCounts))
		for k, v := range d.CountryCounts {
			c.CountryCounts[k] = v
		}
	}
	return &c
}
