package models

import "time"

// User represents a platform customer. Registration and credential
// management live outside this service; the booking flow only needs
// identity and contact details.
type User struct {
	ID        string    `bson:"id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	FirstName string    `bson:"first_name" json:"first_name"`
	LastName  string    `bson:"last_name" json:"last_name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// DisplayFirstName returns the first name, falling back to the email
// local part when the profile carries no name.
func (u *User) DisplayFirstName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	for i, r := range u.Email {
		if r == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
