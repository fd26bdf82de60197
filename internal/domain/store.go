package domain

import "context"

// Store is the boundary between the directory and whatever serves its records.
type Store interface {
	// LoadAll returns every record in source order.
	LoadAll(ctx context.Context) ([]RawRecord, error)
	// Append persists one record and returns it as accepted by the store.
	Append(ctx context.Context, rec RawRecord) (RawRecord, error)
}

// Editor is implemented by stores that can change or drop existing records.
type Editor interface {
	Replace(ctx context.Context, id string, rec RawRecord) error
	Remove(ctx context.Context, id string) error
}

// Pinger is implemented by stores with a reachable backend.
type Pinger interface {
	Ping(ctx context.Context) error
}
