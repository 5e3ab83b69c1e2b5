package identity

import (
	"context"

	"audiogest/record"
)

// Provider resolves the actor on whose behalf an operation runs.
type Provider interface {
	CurrentActor(ctx context.Context) (*record.Actor, error)
}

// Static always returns the same configured actor.
type Static struct {
	Actor record.Actor
}

func (s Static) CurrentActor(_ context.Context) (*record.Actor, error) {
	actor := s.Actor
	return &actor, nil
}

// Fallback is the sentinel identity stamped on imports when no actor is
// available. A missing actor never blocks an import.
func Fallback() record.Actor {
	return record.Actor{ID: "import", Nom: "Import", Prenom: "CSV"}
}
