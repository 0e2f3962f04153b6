package models

import "time"

// User is the credential-store record. Exactly one is created per account,
// either at credential registration (PasswordHash set) or at first federated
// login (the matching provider id set). Provider ids are attached at most
// once and never cleared.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash *string   `bson:"password_hash,omitempty" json:"-"`
	GoogleID     *string   `bson:"google_id,omitempty" json:"-"`
	MicrosoftID  *string   `bson:"microsoft_id,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// HasPassword reports whether the account can use credential login.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
