package models

import (
	"slices"
	"strings"
	"time"

	"github.com/joshua-takyi/rsvpd/internal/helpers"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultCategory = "general"

var Categories = []string{"general", "music", "sports", "tech", "food", "art", "business", "education"}

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location" json:"location"`
	Category    string             `bson:"category" json:"category"`
	Date        time.Time          `bson:"date" json:"date"`
	Capacity    int                `bson:"capacity" json:"capacity"`
	ImageURL    string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	CreatedBy   string             `bson:"created_by" json:"createdBy"`
	Attendees   []string           `bson:"attendees" json:"attendees"`
	Version     int64              `bson:"version" json:"-"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (e *Event) BeforeCreate() error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return nil
}

func (e *Event) HasAttendee(userID string) bool {
	return slices.Contains(e.Attendees, userID)
}

func (e *Event) IsFull() bool {
	return len(e.Attendees) >= e.Capacity
}

func (e *Event) Clone() *Event {
	c := *e
	c.Attendees = slices.Clone(e.Attendees)
	if c.Attendees == nil {
		c.Attendees = []string{}
	}
	return &c
}

// EventInput is the create payload.
type EventInput struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Capacity    int       `json:"capacity" validate:"required,gt=0"`
	Category    string    `json:"category" validate:"omitempty,oneof=general music sports tech food art business education"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,url"`
}

func (in *EventInput) Sanitize() {
	in.Title = helpers.SanitizeText(in.Title)
	in.Description = helpers.SanitizeHTML(in.Description)
	in.Location = helpers.SanitizeText(in.Location)
	in.Category = strings.ToLower(helpers.SanitizeText(in.Category))
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.Category == "" {
		in.Category = DefaultCategory
	}
}

// EventUpdate is the partial update payload. Zero values mean "not provided",
// so a capacity of 0 or an empty title leaves the stored value in place.
type EventUpdate struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity" validate:"omitempty,gt=0"`
	Category    string    `json:"category" validate:"omitempty,oneof=general music sports tech food art business education"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,url"`
}

func (up *EventUpdate) Sanitize() {
	up.Title = helpers.SanitizeText(up.Title)
	up.Description = helpers.SanitizeHTML(up.Description)
	up.Location = helpers.SanitizeText(up.Location)
	up.Category = strings.ToLower(helpers.SanitizeText(up.Category))
	up.ImageURL = strings.TrimSpace(up.ImageURL)
}

// ApplyTo copies every provided field onto e. Attendees and ownership are
// never touched here.
func (up *EventUpdate) ApplyTo(e *Event) {
	if up.Title != "" {
		e.Title = up.Title
	}
	if up.Description != "" {
		e.Description = up.Description
	}
	if !up.Date.IsZero() {
		e.Date = up.Date
	}
	if up.Location != "" {
		e.Location = up.Location
	}
	if up.Capacity != 0 {
		e.Capacity = up.Capacity
	}
	if up.Category != "" {
		e.Category = up.Category
	}
	if up.ImageURL != "" {
		e.ImageURL = up.ImageURL
	}
}

const (
	ViewAll       = ""
	ViewMine      = "mine"
	ViewAttending = "attending"
)

// EventFilter narrows List. Empty fields match everything.
type EventFilter struct {
	Category  string
	From      time.Time
	To        time.Time
	Query     string
	CreatedBy string
	Attendee  string
}

func (f EventFilter) Matches(e *Event) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	if f.CreatedBy != "" && e.CreatedBy != f.CreatedBy {
		return false
	}
	if f.Attendee != "" && !e.HasAttendee(f.Attendee) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(e.Location), q) ||
			strings.Contains(strings.ToLower(e.Description), q)
	}
	return true
}

// EventView is an event with owner and attendee ids resolved for display.
type EventView struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Location      string        `json:"location"`
	Category      string        `json:"category"`
	Date          time.Time     `json:"date"`
	Capacity      int           `json:"capacity"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	CreatedBy     UserSummary   `json:"createdBy"`
	Attendees     []UserSummary `json:"attendees"`
	AttendeeCount int           `json:"attendeeCount"`
	SpotsLeft     int           `json:"spotsLeft"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// NewEventView builds the display form of e. Ids missing from users are
// kept with an empty name and email.
func NewEventView(e *Event, users map[string]UserSummary) *EventView {
	summary := func(id string) UserSummary {
		if u, ok := users[id]; ok {
			u.ID = id
			return u
		}
		return UserSummary{ID: id}
	}

	attendees := make([]UserSummary, 0, len(e.Attendees))
	for _, id := range e.Attendees {
		attendees = append(attendees, summary(id))
	}

	spots := e.Capacity - len(e.Attendees)
	if spots < 0 {
		spots = 0
	}

	return &EventView{
		ID:            e.ID.Hex(),
		Title:         e.Title,
		Description:   e.Description,
		Location:      e.Location,
		Category:      e.Category,
		Date:          e.Date,
		Capacity:      e.Capacity,
		ImageURL:      e.ImageURL,
		CreatedBy:     summary(e.CreatedBy),
		Attendees:     attendees,
		AttendeeCount: len(e.Attendees),
		SpotsLeft:     spots,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
