package domain

import (
	"strings"
	"time"
)

// Client is one intake record per person. Clients are never hard-deleted;
// banned clients keep their history and are flagged instead.
type Client struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	FirstNameLower string    `json:"first_name_lower"`
	LastNameLower  string    `json:"last_name_lower"`
	MiddleInitial  string    `json:"middle_initial"`
	Birthday       string    `json:"birthday"` // YYYY-MM-DD
	Gender         string    `json:"gender"`
	Race           string    `json:"race"`
	PostalCode     string    `json:"postal_code"`
	NumKids        int       `json:"num_kids"`
	Notes          string    `json:"notes"`
	IsCheckedIn    bool      `json:"is_checked_in"`
	IsBanned       bool      `json:"is_banned"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FullName joins first name, middle initial and last name, skipping
// whichever parts are empty.
func (c *Client) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.FirstName, c.MiddleInitial, c.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// HasName reports whether at least one of first or last name is set.
// Intake refuses to create a record for a fully anonymous client.
func (c *Client) HasName() bool {
	return c.FirstName != "" || c.LastName != ""
}

// ClientRecord is the optional-field payload accepted from forms and the
// API. Absent fields get their defaults exactly once, at the data-access
// boundary, instead of in every consumer.
type ClientRecord struct {
	FirstName     *string `json:"first_name,omitempty"`
	LastName      *string `json:"last_name,omitempty"`
	MiddleInitial *string `json:"middle_initial,omitempty"`
	Birthday      *string `json:"birthday,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	Race          *string `json:"race,omitempty"`
	PostalCode    *string `json:"postal_code,omitempty"`
	NumKids       *int    `json:"num_kids,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	IsCheckedIn   *bool   `json:"is_checked_in,omitempty"`
	IsBanned      *bool   `json:"is_banned,omitempty"`
}

// Defaulted fills a Client from the record: empty strings and zeros for
// absent fields, today's date for a missing birthday, false for flags.
// Lower-cased name mirrors are recomputed here so they can never drift.
func (r ClientRecord) Defaulted(now time.Time) Client {
	c := Client{
		FirstName:     strDefault(r.FirstName),
		LastName:      strDefault(r.LastName),
		MiddleInitial: strDefault(r.MiddleInitial),
		Birthday:      strDefault(r.Birthday),
		Gender:        strDefault(r.Gender),
		Race:          strDefault(r.Race),
		PostalCode:    strDefault(r.PostalCode),
		NumKids:       intDefault(r.NumKids),
		Notes:         strDefault(r.Notes),
		IsCheckedIn:   boolDefault(r.IsCheckedIn),
		IsBanned:      boolDefault(r.IsBanned),
	}
	if c.Birthday == "" {
		c.Birthday = now.Format("2006-01-02")
	}
	if c.NumKids < 0 {
		c.NumKids = 0
	}
	c.FirstNameLower = strings.ToLower(c.FirstName)
	c.LastNameLower = strings.ToLower(c.LastName)
	return c
}

// Normalize recomputes the derived name mirrors on a full Client. Every
// write path goes through this.
func (c *Client) Normalize() {
	c.FirstNameLower = strings.ToLower(c.FirstName)
	c.LastNameLower = strings.ToLower(c.LastName)
	if c.NumKids < 0 {
		c.NumKids = 0
	}
}

// SearchFilter restricts a client lookup. Only populated fields filter;
// an empty filter matches all clients. Name fields are prefix matches on
// the lower-cased mirrors.
type SearchFilter struct {
	FirstNameLower   string `json:"firstNameLower,omitempty"`
	LastNameLower    string `json:"lastNameLower,omitempty"`
	Birthday         string `json:"birthday,omitempty"`
	FilterByBirthday bool   `json:"filterByBirthday,omitempty"`
}

// IsEmpty reports whether the filter requests all clients.
func (f SearchFilter) IsEmpty() bool {
	return f.FirstNameLower == "" && f.LastNameLower == "" && !f.FilterByBirthday
}

func strDefault(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intDefault(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func boolDefault(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
