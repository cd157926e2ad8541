// Package store provides snapshot persistence for the API server.
//
// A snapshot is one uploaded inventory (vms, hosts, optional KPI seed)
// plus bookkeeping metadata. Backends:
//   - memory: In-memory storage for development/testing and the CLI
//   - mongo: MongoDB-backed storage for server deployments
//
// # Usage
//
// Create a store:
//
//	// Development
//	st := store.NewMemoryStore()
//
//	// Production
//	st, err := store.NewMongoStore(ctx, "mongodb://localhost:27017", "topolens")
//
// Manage snapshots:
//
//	rec, err := st.Save(ctx, "friday-scan", snap)
//	if err != nil {
//	    return err
//	}
//	rec, err = st.Get(ctx, rec.ID)
package store

import (
	"context"
	"time"

	"github.com/topolens/topolens/pkg/inventory"
)

// Record is a stored snapshot with metadata.
type Record struct {
	ID        string             `json:"id" bson:"_id"`
	Name      string             `json:"name" bson:"name"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	VMCount   int                `json:"vm_count" bson:"vm_count"`
	HostCount int                `json:"host_count" bson:"host_count"`
	Snapshot  inventory.Snapshot `json:"snapshot" bson:"snapshot"`
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Save stores a snapshot under a fresh id and returns the record.
	Save(ctx context.Context, name string, snap inventory.Snapshot) (*Record, error)

	// Get retrieves a snapshot by id.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns metadata for all stored snapshots, newest first.
	// The returned records have their Snapshot field zeroed.
	List(ctx context.Context) ([]Record, error)

	// Delete removes a snapshot.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
