package domain

import "time"

// User represents a registered account.
type User struct {
	ID           string
	Name         string
	Email        string
	PhoneNo      string
	PasswordHash []byte
	CreatedAt    time.Time
}

// PublicUser is the subset of User fields returned to clients. ID is only
// populated where the caller is the account owner.
type PublicUser struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	PhoneNo string `json:"phoneNo"`
}

// Public returns the client facing view of u without its identifier.
func (u *User) Public() PublicUser {
	if u == nil {
		return PublicUser{}
	}
	return PublicUser{Name: u.Name, Email: u.Email, PhoneNo: u.PhoneNo}
}

// Profile returns the client facing view of u including its identifier.
func (u *User) Profile() PublicUser {
	p := u.Public()
	if u != nil {
		p.ID = u.ID
	}
	return p
}
