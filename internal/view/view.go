// Package view builds the read-only presentation models for client and
// visit pages. Status labels are derived here and nowhere else.
package view

import (
	"fmt"

	"github.com/sfhouse/intake/internal/domain"
)

// Canonical status label pairs.
const (
	CheckedInLabel    = "Checked in"
	NotCheckedInLabel = "Not Checked In"
	BannedLabel       = "Banned"
	NotBannedLabel    = "Not Banned"
)

// NotesPreviewLimit is where card notes get cut off.
const NotesPreviewLimit = 128

// SkeletonCount is how many placeholder cards a loading list shows.
const SkeletonCount = 3

func CheckedInStatus(isCheckedIn bool) string {
	if isCheckedIn {
		return CheckedInLabel
	}
	return NotCheckedInLabel
}

func BannedStatus(isBanned bool) string {
	if isBanned {
		return BannedLabel
	}
	return NotBannedLabel
}

// PageState is the resolution of a single-document page fetch.
type PageState int

const (
	PageReady PageState = iota
	PageNotFound
	PageFailed
)

// ResolvePage maps a fetch outcome to a page state. A store error beats
// not-found so failures surface instead of silently redirecting.
func ResolvePage(found bool, err error) PageState {
	switch {
	case err != nil:
		return PageFailed
	case !found:
		return PageNotFound
	default:
		return PageReady
	}
}

// Profile is the read-only profile page model.
type Profile struct {
	ID              string `json:"id"`
	Heading         string `json:"heading"`
	CheckedInStatus string `json:"checked_in_status"`
	BannedStatus    string `json:"banned_status"`
	Birthday        string `json:"birthday"`
	Gender          string `json:"gender,omitempty"`
	Race            string `json:"race,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	NumKids         int    `json:"num_kids"`
	Notes           string `json:"notes,omitempty"`
}

func NewProfile(c *domain.Client) Profile {
	return Profile{
		ID:              c.ID,
		Heading:         c.FullName(),
		CheckedInStatus: CheckedInStatus(c.IsCheckedIn),
		BannedStatus:    BannedStatus(c.IsBanned),
		Birthday:        c.Birthday,
		Gender:          c.Gender,
		Race:            c.Race,
		PostalCode:      c.PostalCode,
		NumKids:         c.NumKids,
		Notes:           c.Notes,
	}
}

// Card is one client summary in a list.
type Card struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Banned      bool   `json:"banned"`
	Birthday    string `json:"birthday"`
	Notes       string `json:"notes"`
	ProfileLink string `json:"profile_link"`
	EditLink    string `json:"edit_link"`
	ActionLink  string `json:"action_link"` // check-in or check-out, by current status
}

func NewCard(c domain.Client) Card {
	action := "/checkin/" + c.ID
	if c.IsCheckedIn {
		action = "/checkout/" + c.ID
	}
	return Card{
		ID:          c.ID,
		Name:        c.FirstName + " " + c.LastName,
		Banned:      c.IsBanned,
		Birthday:    c.Birthday,
		Notes:       truncateNotes(c.Notes),
		ProfileLink: "/profile/" + c.ID,
		EditLink:    "/update/" + c.ID,
		ActionLink:  action,
	}
}

func truncateNotes(notes string) string {
	runes := []rune(notes)
	if len(runes) <= NotesPreviewLimit {
		return notes
	}
	return string(runes[:NotesPreviewLimit]) + "..."
}

// ListState selects which of the three mutually exclusive list renderings
// applies, with precedence loading > empty > ready.
type ListState string

const (
	ListLoading ListState = "loading"
	ListEmpty   ListState = "empty"
	ListReady   ListState = "ready"
)

// List is the client list model.
type List struct {
	State         ListState `json:"state"`
	Message       string    `json:"message,omitempty"`
	SkeletonCount int       `json:"skeleton_count,omitempty"`
	Cards         []Card    `json:"cards,omitempty"`
}

func NewList(clients []domain.Client, loading bool, noDataMessage string) List {
	if noDataMessage == "" {
		noDataMessage = "No Clients"
	}
	if loading {
		return List{State: ListLoading, SkeletonCount: SkeletonCount}
	}
	if len(clients) == 0 {
		return List{State: ListEmpty, Message: noDataMessage}
	}
	cards := make([]Card, 0, len(clients))
	for _, c := range clients {
		cards = append(cards, NewCard(c))
	}
	return List{State: ListReady, Cards: cards}
}

// VisitDetail is the visit page model. Items holds one line per granted
// request; empty household/notes are omitted.
type VisitDetail struct {
	Heading   string   `json:"heading"`
	When      string   `json:"when"`
	Items     []string `json:"items"`
	Household string   `json:"household,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Request flag labels and count labels, in display order.
var visitFlagLabels = []struct {
	label string
	value func(*domain.Visit) bool
}{
	{"Men", func(v *domain.Visit) bool { return v.ClothingMen }},
	{"Women", func(v *domain.Visit) bool { return v.ClothingWomen }},
	{"Kids (boy)", func(v *domain.Visit) bool { return v.ClothingBoy }},
	{"Kids (girl)", func(v *domain.Visit) bool { return v.ClothingGirl }},
	{"Backpack", func(v *domain.Visit) bool { return v.Backpack }},
	{"Sleeping Bag", func(v *domain.Visit) bool { return v.SleepingBag }},
}

var visitCountLabels = []struct {
	label string
	value func(*domain.Visit) int
}{
	{"Bus Tickets", func(v *domain.Visit) int { return v.BusTicket }},
	{"Gift Card", func(v *domain.Visit) int { return v.GiftCard }},
	{"Diapers", func(v *domain.Visit) int { return v.Diaper }},
	{"Financial Assistance", func(v *domain.Visit) int { return v.FinancialAssistance }},
}

func NewVisitDetail(v *domain.Visit) VisitDetail {
	t := v.Time()
	d := VisitDetail{
		Heading:   "Visit Details",
		When:      fmt.Sprintf("%s - %s", t.Format("Mon Jan 02 2006"), t.Format("15:04:05 MST")),
		Items:     []string{},
		Household: v.Household,
		Notes:     v.Notes,
	}
	for _, f := range visitFlagLabels {
		if f.value(v) {
			d.Items = append(d.Items, f.label)
		}
	}
	for _, c := range visitCountLabels {
		if n := c.value(v); n != 0 {
			d.Items = append(d.Items, fmt.Sprintf("%s: %d", c.label, n))
		}
	}
	return d
}
