// Package forms carries the intake desk form semantics: which fields a
// submission contributes, what defaults apply, and where the desk
// navigates after a save.
package forms

import (
	"strings"
	"time"

	"github.com/sfhouse/intake/internal/domain"
)

// SearchForm is the client lookup form. Empty fields are omitted from the
// filter, so an all-empty submit asks for every client.
type SearchForm struct {
	FirstName        string
	LastName         string
	Birthday         string
	FilterByBirthday bool
}

// NewSearchForm returns the form at its defaults: today's date with the
// birthday filter disabled.
func NewSearchForm(now time.Time) SearchForm {
	return SearchForm{
		Birthday: now.Format("2006-01-02"),
	}
}

// Filter builds the lookup filter from the populated fields only. Names
// are lower-cased to match the stored mirrors; the birthday only
// participates when its checkbox is set.
func (f SearchForm) Filter() domain.SearchFilter {
	filter := domain.SearchFilter{}
	if f.FirstName != "" {
		filter.FirstNameLower = strings.ToLower(f.FirstName)
	}
	if f.LastName != "" {
		filter.LastNameLower = strings.ToLower(f.LastName)
	}
	if f.FilterByBirthday {
		filter.Birthday = f.Birthday
		filter.FilterByBirthday = true
	}
	return filter
}

// Reset restores the defaults.
func (f *SearchForm) Reset(now time.Time) {
	*f = NewSearchForm(now)
}
