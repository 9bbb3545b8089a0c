package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleUser    Role = "USER"
	RoleAdmin   Role = "ADMIN"
	RoleCitizen Role = "CITIZEN"
)

// Gender is an optional profile attribute.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Identity is the account record. Accounts are created inactive and become
// active only after a successful activation-token validation.
type Identity struct {
	ID                   string
	Email                string
	PasswordHash         string
	FirstName            string
	LastName             string
	IdentificationNumber string
	BirthDate            *time.Time
	Gender               Gender
	Role                 Role
	Active               bool
	CreatedAt            time.Time
}
