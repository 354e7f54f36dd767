package models

import (
	"html"
	"time"
)

// What the homepage shows when no article is flagged as the homepage.
const (
	NohomeSections   = "sections"
	NohomeArticles   = "articles"
	NohomeCustomHTML = "custom_html"
	NohomeNone       = "none"
)

// NohomeChoices lists the no-homepage display modes.
var NohomeChoices = []Choice{
	{NohomeSections, "Sections"},
	{NohomeArticles, "Articles"},
	{NohomeCustomHTML, "Custom HTML"},
	{NohomeNone, "None"},
}

// Setting is a named bundle of site-wide configuration. Exactly one row is
// active at any time.
type Setting struct {
	ID                  int64
	IsActive            bool
	Name                string
	Title               string
	Description         string
	Keywords            string
	AppendKeywords      bool
	NohomeContentType   string
	NohomeContentItems  int
	KeywordsSearchItems int
	NohomeTitle         string
	NohomeCustom        string
	CSS                 string
	JS                  string
	CopyrightID         *int64
	DisclaimerID        *int64
	ContactIDs          []int64
	DateMade            time.Time
	DateEdit            time.Time

	// Loaded by Repository.Active.
	Copyright  *CopyrightInfo
	Disclaimer *Disclaimer
	Contacts   []ContactInfo
}

// NewSetting returns a setting carrying the default field values.
func NewSetting() *Setting {
	return &Setting{
		Title:               "My S13Core Website",
		AppendKeywords:      true,
		NohomeContentType:   NohomeNone,
		NohomeContentItems:  8,
		KeywordsSearchItems: 12,
	}
}

func (s *Setting) String() string {
	if s.IsActive {
		return s.Name + " (active)"
	}
	return s.Name
}

// ContactInfo is a contact block shown on the site.
type ContactInfo struct {
	ID          int64
	ContactName string
	Address     string
	Email       string
	Phone       string
	Weight      int
}

// NewContactInfo returns a contact with the default name.
func NewContactInfo() *ContactInfo {
	return &ContactInfo{ContactName: "Juan de la Cruz"}
}

func (c *ContactInfo) String() string {
	return c.ContactName
}

// CopyrightInfo holds the copyright statement and optional license.
type CopyrightInfo struct {
	ID        int64
	Statement string
	License   string
	Link      string
}

func (c *CopyrightInfo) String() string {
	return c.Statement
}

// MakeStatement renders the statement followed by the license, linked when a
// link is present.
func (c *CopyrightInfo) MakeStatement() string {
	if c.License == "" {
		return c.Statement
	}
	if c.Link != "" {
		return c.Statement + `<br /><a href="` + html.EscapeString(c.Link) + `" target="_blank">` +
			html.EscapeString(c.License) + `</a>`
	}
	return c.Statement + "<br />" + html.EscapeString(c.License)
}

// Disclaimer is a titled block of legal text.
type Disclaimer struct {
	ID    int64
	Title string
	Body  string
}

// NewDisclaimer returns a disclaimer with the default title.
func NewDisclaimer() *Disclaimer {
	return &Disclaimer{Title: "Disclaimer"}
}

func (d *Disclaimer) String() string {
	return d.Title
}
