package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Skill is a capability a technician can hold. Category matches a ServiceType.
type Skill struct {
	ID          uuid.UUID
	Name        string
	Category    string
	Description *string
	Active      bool
	CreatedAt   time.Time
}

// WorkArea is a service region defined by a fixed list of zip codes.
type WorkArea struct {
	ID       uuid.UUID
	Name     string
	City     string
	State    string
	ZipCodes []string
	Active   bool
}

// Serves reports whether zip belongs to the area.
func (w WorkArea) Serves(zip string) bool {
	return slices.Contains(w.ZipCodes, zip)
}

// Person is the contact data of a customer or technician.
type Person struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// FullName joins first and last name.
func (p Person) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
