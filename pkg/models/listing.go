package models

import (
	"strconv"
	"time"
)

type ListingStatus string

const (
	ListingAvailable   ListingStatus = "available"
	ListingRented      ListingStatus = "rented"
	ListingMaintenance ListingStatus = "maintenance"
	ListingInactive    ListingStatus = "inactive"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingAvailable, ListingRented, ListingMaintenance, ListingInactive:
		return true
	}
	return false
}

type Listing struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Make        string        `json:"make"`
	Model       string        `json:"model"`
	Year        int           `json:"year"`
	PlateNumber string        `json:"plate_number"`
	DailyRate   int64         `json:"daily_rate"`
	Location    string        `json:"location"`
	Description string        `json:"description"`
	Status      ListingStatus `json:"status"`
	Verified    bool          `json:"verified"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Favoritable is the public-visibility rule: approved and currently offered.
func (l *Listing) Favoritable() bool {
	return l.Verified && l.Status == ListingAvailable
}

func (l *Listing) Title() string {
	if l.Year > 0 {
		return l.Make + " " + l.Model + " (" + strconv.Itoa(l.Year) + ")"
	}
	return l.Make + " " + l.Model
}

type ListingInput struct {
	Make        string        `json:"make"`
	Model       string        `json:"model"`
	Year        int           `json:"year"`
	PlateNumber string        `json:"plate_number"`
	DailyRate   int64         `json:"daily_rate"`
	Location    string        `json:"location"`
	Description string        `json:"description"`
	Status      ListingStatus `json:"status"`
}

type ListingPatch struct {
	Make        *string        `json:"make"`
	Model       *string        `json:"model"`
	Year        *int           `json:"year"`
	PlateNumber *string        `json:"plate_number"`
	DailyRate   *int64         `json:"daily_rate"`
	Location    *string        `json:"location"`
	Description *string        `json:"description"`
	Status      *ListingStatus `json:"status"`
}

func (p ListingPatch) ApplyTo(l *Listing) {
	if p.Make != nil {
		l.Make = *p.Make
	}
	if p.Model != nil {
		l.Model = *p.Model
	}
	if p.Year != nil {
		l.Year = *p.Year
	}
	if p.PlateNumber != nil {
		l.PlateNumber = *p.PlateNumber
	}
	if p.DailyRate != nil {
		l.DailyRate = *p.DailyRate
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
}
