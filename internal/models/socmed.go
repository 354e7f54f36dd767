package models

import "time"

// APIKey is a credential for a third party API.
type APIKey struct {
	ID    int64
	Label string
	Key   string
}

func (k *APIKey) String() string {
	return "APIKey: " + k.Label
}

// SocMedProcessor turns a stored feed response into articles. URI is a
// template for the request URL; Code is the processing program.
type SocMedProcessor struct {
	ID    int64
	Label string
	URI   string
	Code  string
	Notes string
}

func (p *SocMedProcessor) String() string {
	return "SocMedProcessor: " + p.Label
}

// SocMedFeed ties an account on a remote service to a section of the site.
type SocMedFeed struct {
	ID           int64
	Label        string
	APIKeyID     *int64
	AccountID    string
	MaxResults   int
	Response     string
	FetchedAt    *time.Time
	CMSSectionID *int64
	ProcessorID  *int64
}

// NewSocMedFeed returns a feed carrying the default field values.
func NewSocMedFeed() *SocMedFeed {
	return &SocMedFeed{MaxResults: 5}
}

func (f *SocMedFeed) String() string {
	return "SocMedFeed: " + f.Label
}
