package model

import "time"

// RoleUser is assigned to every account on registration.
const RoleUser = "user"

// RoleAdmin is accepted by the role guard on protected routes; this service
// never grants it on its own.
const RoleAdmin = "admin"

// Account represents a user record as stored in the `users` table.  Each
// field corresponds to a column in the database.  Roles are stored as a
// comma separated list.  PasswordHash is excluded from JSON so an Account can
// never leak it by accident; handlers still use PublicAccount for responses.
//
// Fields:
//
//	ID           – opaque identifier (UUID string).
//	Username     – unique username.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hashed password.
//	Roles        – role labels carried into access tokens.
//	CreatedAt    – timestamp of creation (UTC).
type Account struct {
	ID           string    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    `json:"-"` // users.password_hash
	Roles        []string  // users.roles
	CreatedAt    time.Time // users.created_at
}

// Public returns a copy of the account without the password hash.
func (a Account) Public() Account {
	a.PasswordHash = ""
	roles := make([]string, len(a.Roles))
	copy(roles, a.Roles)
	a.Roles = roles
	return a
}

// PublicAccount is the outward view returned inside auth responses.
type PublicAccount struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// Profile is the outward view returned by the profile endpoint.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToPublic builds the auth-response view of a.
func (a Account) ToPublic() PublicAccount {
	return PublicAccount{ID: a.ID, Username: a.Username, Email: a.Email, Roles: nonNil(a.Roles)}
}

// ToProfile builds the profile view of a.
func (a Account) ToProfile() Profile {
	return Profile{ID: a.ID, Username: a.Username, Email: a.Email, Roles: nonNil(a.Roles), CreatedAt: a.CreatedAt}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
