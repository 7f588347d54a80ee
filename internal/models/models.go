package models

import "time"

// Privacy controls who can see an event in listings.
type Privacy int

const (
	PrivacyPublic   Privacy = 1
	PrivacyPrivate  Privacy = 2
	PrivacyUnlisted Privacy = 3
)

// Valid reports whether p is one of the three known privacy tiers.
func (p Privacy) Valid() bool {
	return p == PrivacyPublic || p == PrivacyPrivate || p == PrivacyUnlisted
}

// EventType selects which featured-person field an event requires.
type EventType string

const (
	EventBirthday   EventType = "Birthday"
	EventGraduation EventType = "Graduation"
	EventWedding    EventType = "Wedding"
	EventOther      EventType = "Other"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventBirthday, EventGraduation, EventWedding, EventOther:
		return true
	}
	return false
}

// User represents a registered account. Users are never deleted.
type User struct {
	UID            string    `json:"uid"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Geocode        *Geocode  `json:"geocode,omitempty"`
	PushToken      *string   `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Geocode is an optional latitude/longitude attached to users and events.
type Geocode struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EventDateTime keeps the denormalized display strings the mobile clients
// store: a long date like "July 20, 2025" and 12-hour times with AM/PM.
// Existing records depend on this exact format.
type EventDateTime struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Location is an event's street address.
type Location struct {
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
}

// Event is a social event. Photos are keyed by upload timestamp in
// milliseconds; Owner is set once at creation and never changes.
type Event struct {
	ID       string        `json:"id"`
	Title    string        `json:"eventTitle"`
	Type     EventType     `json:"eventType"`
	DateTime EventDateTime `json:"eventDateTime"`

	Celebrant string `json:"celebrant,omitempty"`
	Graduate  string `json:"graduate,omitempty"`
	BrideName string `json:"brideName,omitempty"`
	GroomName string `json:"groomName,omitempty"`
	Host      string `json:"host,omitempty"`

	NumberOfGuests int      `json:"numberOfGuests"`
	Location       Location `json:"location"`
	Description    string   `json:"description"`
	Info           string   `json:"info"`

	Photos map[string]string `json:"photos,omitempty"`

	Owner    string   `json:"owner"`
	Username string   `json:"username"`
	Privacy  Privacy  `json:"privacy"`
	Geocode  *Geocode `json:"geocode,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Album is a named, ordered collection of photo URLs. The owner is either
// an event id or a user uid. Albums are never deleted.
type Album struct {
	ID             string    `json:"id"`
	Name           string    `json:"albumName"`
	CreatedAt      time.Time `json:"createdAt"`
	Photos         []string  `json:"photos,omitempty"`
	NumberOfPhotos int       `json:"numberOfPhotos"`
	Owner          string    `json:"owner"`
}

// FriendStatus is the state of a friend request edge.
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

// RequestDirection distinguishes a user's sent and received request views.
type RequestDirection string

const (
	RequestSent     RequestDirection = "sent"
	RequestReceived RequestDirection = "received"
)

// FriendRequest is the single edge record both users' sent/received views
// are derived from, keyed by the ordered (sender, receiver) pair.
type FriendRequest struct {
	Sender     string       `json:"sender"`
	Receiver   string       `json:"receiver"`
	Status     FriendStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	AcceptedAt *time.Time   `json:"acceptedAt,omitempty"`
}

// FriendUser is the minimal profile view returned by friend listings.
type FriendUser struct {
	UID            string `json:"uid"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePictureURL"`
}
