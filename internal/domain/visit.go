package domain

import "time"

// Visit is one check-in event with the requests the client made. A visit
// belongs to exactly one client and is immutable once created.
type Visit struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id"`
	Timestamp int64  `json:"timestamp"` // seconds since epoch
	Household string `json:"household"`
	Notes     string `json:"notes"`

	ClothingMen   bool `json:"clothing_men"`
	ClothingWomen bool `json:"clothing_women"`
	ClothingBoy   bool `json:"clothing_boy"`
	ClothingGirl  bool `json:"clothing_girl"`
	Backpack      bool `json:"backpack"`
	SleepingBag   bool `json:"sleeping_bag"`

	BusTicket           int `json:"bus_ticket"`
	GiftCard            int `json:"gift_card"`
	Diaper              int `json:"diaper"`
	FinancialAssistance int `json:"financial_assistance"`
}

// Time returns the visit moment in UTC.
func (v *Visit) Time() time.Time {
	return time.Unix(v.Timestamp, 0).UTC()
}

// VisitRecord is the optional-field payload for recording a visit at
// check-in. Defaulting happens once at the data-access boundary.
type VisitRecord struct {
	Timestamp *int64  `json:"timestamp,omitempty"`
	Household *string `json:"household,omitempty"`
	Notes     *string `json:"notes,omitempty"`

	ClothingMen   *bool `json:"clothing_men,omitempty"`
	ClothingWomen *bool `json:"clothing_women,omitempty"`
	ClothingBoy   *bool `json:"clothing_boy,omitempty"`
	ClothingGirl  *bool `json:"clothing_girl,omitempty"`
	Backpack      *bool `json:"backpack,omitempty"`
	SleepingBag   *bool `json:"sleeping_bag,omitempty"`

	BusTicket           *int `json:"bus_ticket,omitempty"`
	GiftCard            *int `json:"gift_card,omitempty"`
	Diaper              *int `json:"diaper,omitempty"`
	FinancialAssistance *int `json:"financial_assistance,omitempty"`
}

// Defaulted fills a Visit from the record. A missing timestamp becomes
// the current time.
func (r VisitRecord) Defaulted(now time.Time) Visit {
	v := Visit{
		Household:           strDefault(r.Household),
		Notes:               strDefault(r.Notes),
		ClothingMen:         boolDefault(r.ClothingMen),
		ClothingWomen:       boolDefault(r.ClothingWomen),
		ClothingBoy:         boolDefault(r.ClothingBoy),
		ClothingGirl:        boolDefault(r.ClothingGirl),
		Backpack:            boolDefault(r.Backpack),
		SleepingBag:         boolDefault(r.SleepingBag),
		BusTicket:           intDefault(r.BusTicket),
		GiftCard:            intDefault(r.GiftCard),
		Diaper:              intDefault(r.Diaper),
		FinancialAssistance: intDefault(r.FinancialAssistance),
	}
	if r.Timestamp != nil {
		v.Timestamp = *r.Timestamp
	} else {
		v.Timestamp = now.Unix()
	}
	for _, n := range []*int{&v.BusTicket, &v.GiftCard, &v.Diaper, &v.FinancialAssistance} {
		if *n < 0 {
			*n = 0
		}
	}
	return v
}
