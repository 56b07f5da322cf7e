package forms

import (
	"time"

	"github.com/sfhouse/intake/internal/domain"
)

// DefaultRedirect is where a save navigates when nothing more specific
// applies.
const DefaultRedirect = "/"

// ClientForm edits the full client schema. With an ID it overwrites the
// existing document; without one it creates a new record, but only when
// at least one name field is filled in.
type ClientForm struct {
	ID       string
	Redirect string
	Fields   domain.Client
}

// NewClientForm pre-populates the form. A nil record yields the field
// defaults (empty strings, zero, today's date, false).
func NewClientForm(id string, initial *domain.ClientRecord, redirect string, now time.Time) ClientForm {
	rec := domain.ClientRecord{}
	if initial != nil {
		rec = *initial
	}
	if redirect == "" {
		redirect = DefaultRedirect
	}
	return ClientForm{
		ID:       id,
		Redirect: redirect,
		Fields:   rec.Defaulted(now),
	}
}

// SaveResult describes what a save action wants done: whether to write,
// the final field values, and where to navigate afterwards. When CheckIn
// is set the destination is the check-in flow for the saved id.
type SaveResult struct {
	Write    bool
	Create   bool
	CheckIn  bool
	Client   domain.Client
	redirect string
}

// RedirectTo resolves the post-save route. id is the saved document's id,
// which for a create is only known after the write.
func (r SaveResult) RedirectTo(id string) string {
	if r.CheckIn && id != "" {
		return "/checkin/" + id
	}
	return r.redirect
}

// Save persists the current field values, preserving the existing
// checked-in status. Creating with both names blank writes nothing but
// still navigates.
func (f ClientForm) Save() SaveResult {
	c := f.Fields
	c.Normalize()
	return SaveResult{
		Write:    f.ID != "" || c.HasName(),
		Create:   f.ID == "",
		Client:   c,
		redirect: f.Redirect,
	}
}

// SaveToggleCheckIn is Save with the checked-in status flipped. When the
// flip lands on checked-in, navigation goes to the check-in flow so the
// visit's requests can be recorded.
func (f ClientForm) SaveToggleCheckIn() SaveResult {
	r := f.Save()
	r.Client.IsCheckedIn = !f.Fields.IsCheckedIn
	r.CheckIn = r.Client.IsCheckedIn
	return r
}
