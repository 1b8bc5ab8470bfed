package types

import "context"

// MutationKind names the change a Mutation describes.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
	MutationMove   MutationKind = "move"
	MutationReset  MutationKind = "reset"
)

// Mutation describes a committed change to one entity store. Records is the
// full ordered snapshot of the store after the change.
type Mutation struct {
	Entity  Entity
	Kind    MutationKind
	IDs     []string
	Records []Record
}

// Persister is the boundary to durable storage. LoadInitial seeds a store
// once per session; Persist is called after every committed mutation.
type Persister interface {
	LoadInitial(ctx context.Context, entity Entity) ([]Record, error)
	Persist(ctx context.Context, m Mutation) error
	Close() error
}

// SeedFunc supplies the initial records of an entity a backend has never
// stored.
type SeedFunc func(Entity) ([]Record, error)

// Navigator is the routing collaborator. Controllers only use it to return
// to a list view after a create.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }
