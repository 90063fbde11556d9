// Package store persists territory claims as flat rows.
//
// Every driver stores the same row shape: {owner, address, lat, lon} where
// owner holds the compound "owner | branch | place" key, plus an id column
// (the claim handle) and a kind column.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sojunghan/territory-cli/internal/geo"
	"github.com/sojunghan/territory-cli/internal/model"
)

// ErrNotFound is returned when a row to delete or replace does not exist.
var ErrNotFound = eris.New("store: claim not found")

// ClaimStore is the persistence collaborator of the claim registry.
type ClaimStore interface {
	// ListClaims returns every stored claim in insertion order.
	ListClaims(ctx context.Context) ([]model.Claim, error)
	// InsertClaim appends a claim row.
	InsertClaim(ctx context.Context, c model.Claim) error
	// InsertClaimChecked re-reads every stored claim, passes them to check
	// and appends c only when check returns nil. The read, check and insert
	// hold the store's writer lock, so writers in other processes cannot
	// commit in between. The check's error is returned unchanged.
	InsertClaimChecked(ctx context.Context, c model.Claim, check func(stored []model.Claim) error) error
	// DeleteClaim removes the row with id, or returns ErrNotFound.
	DeleteClaim(ctx context.Context, id string) error
	// ReplaceClaims atomically removes the rows with the given claims' IDs
	// and re-inserts them with their new field values.
	ReplaceClaims(ctx context.Context, claims []model.Claim) error

	Migrate(ctx context.Context) error
	Close() error
}

// Row is the flat persisted form of a claim.
type Row struct {
	ID        string
	Owner     string
	Address   string
	Lat       float64
	Lon       float64
	Kind      string
	CreatedAt time.Time
}

// ToRow flattens a claim, folding owner/branch/place into the owner column.
func ToRow(c model.Claim) Row {
	return Row{
		ID:        c.ID,
		Owner:     model.FormatKey(c.Key()),
		Address:   c.Address,
		Lat:       c.Location.Lat,
		Lon:       c.Location.Lon,
		Kind:      string(c.Kind),
		CreatedAt: c.CreatedAt,
	}
}

// Claim expands a row back into a claim. Rows written before the kind column
// existed get a kind derived from the place label.
func (r Row) Claim() model.Claim {
	key := model.ParseKey(r.Owner)
	kind, err := model.ParseClaimKind(r.Kind)
	if err != nil {
		kind = geo.KindFromLabel(key.Place)
	}
	return model.Claim{
		ID:        r.ID,
		Owner:     key.Owner,
		Branch:    key.Branch,
		Place:     key.Place,
		Address:   r.Address,
		Location:  model.GeoPoint{Lat: r.Lat, Lon: r.Lon},
		Kind:      kind,
		CreatedAt: r.CreatedAt,
	}
}
