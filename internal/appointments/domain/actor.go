package domain

import "github.com/google/uuid"

// Actor is whoever requests a state change. The concrete type decides which
// transitions are permitted.
type Actor interface {
	actorKind() string
}

// Customer owns appointments they created.
type Customer struct{ ID uuid.UUID }

// Technician performs assigned work.
type Technician struct{ ID uuid.UUID }

// Assigner is the automated assignment engine.
type Assigner struct{}

// Operator is back-office staff with read access to every appointment and
// the ability to re-trigger assignment.
type Operator struct{ ID uuid.UUID }

func (Customer) actorKind() string   { return "customer" }
func (Technician) actorKind() string { return "technician" }
func (Assigner) actorKind() string   { return "assigner" }
func (Operator) actorKind() string   { return "operator" }

// ActorKind names the actor for logs and error messages.
func ActorKind(a Actor) string {
	if a == nil {
		return "anonymous"
	}
	return a.actorKind()
}
