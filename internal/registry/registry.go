// Package registry holds the committed claims and is the only place they
// are created or removed. Every registration is checked against the other
// owners' stored claims and written inside the store's checked insert, so
// claims of different owners never overlap even with several writers.
package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sojunghan/territory-cli/internal/conflict"
	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/store"
)

// Registry is the in-memory set of committed claims backed by a ClaimStore.
type Registry struct {
	mu     sync.RWMutex
	store  store.ClaimStore
	radii  model.Radii
	claims []model.Claim
	index  *conflict.Index

	now   func() time.Time
	newID func() string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source for claim timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator sets the generator for claim handles.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// New creates an empty registry. Call Load to read the stored claims.
func New(st store.ClaimStore, radii model.Radii, opts ...Option) *Registry {
	r := &Registry{
		store: st,
		radii: radii,
		index: conflict.NewIndex(radii),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Radii returns the exclusion radii the registry enforces.
func (r *Registry) Radii() model.Radii { return r.radii }

// Load replaces the in-memory state with a full read of the store. Rows
// that fail validation are skipped. Overlaps already present in the store
// are logged and kept so they can still be removed. Two stored claims with
// the same handle fail the load with ErrDuplicateID.
func (r *Registry) Load(ctx context.Context) error {
	stored, err := r.store.ListClaims(ctx)
	if err != nil {
		return eris.Wrap(err, "registry: load claims")
	}

	claims, index, err := r.build(stored, func(c model.Claim, err error) {
		zap.L().Warn("registry: skipping invalid stored claim",
			zap.String("id", c.ID),
			zap.String("owner", c.Owner),
			zap.Error(err),
		)
	})
	if err != nil {
		return eris.Wrap(err, "registry: load claims")
	}

	for _, pair := range conflict.Violations(claims, r.radii) {
		zap.L().Warn("registry: stored claims overlap",
			zap.String("first_id", pair[0].ID),
			zap.String("first_owner", pair[0].Owner),
			zap.String("second_id", pair[1].ID),
			zap.String("second_owner", pair[1].Owner),
			zap.Float64("distance_m", pair[0].Location.DistanceTo(pair[1].Location)),
		)
	}

	r.mu.Lock()
	r.claims = claims
	r.index = index
	r.mu.Unlock()

	zap.L().Info("registry: loaded claims", zap.Int("count", len(claims)))
	return nil
}

// usable reports why a stored claim cannot take part in conflict checks.
// Stored keys are kept as the store parsed them, even ones a new claim
// would be refused for.
func usable(c model.Claim) error {
	if err := c.Validate(); err != nil && !errors.Is(err, model.ErrKeyDelimiter) {
		return err
	}
	return nil
}

// build validates and indexes stored claims. skip, when set, is told about
// every unusable row. The index is keyed by handle, so a repeated handle
// is an error.
func (r *Registry) build(stored []model.Claim, skip func(model.Claim, error)) ([]model.Claim, *conflict.Index, error) {
	claims := make([]model.Claim, 0, len(stored))
	index := conflict.NewIndex(r.radii)
	seen := make(map[string]struct{}, len(stored))
	for _, c := range stored {
		if err := usable(c); err != nil {
			if skip != nil {
				skip(c, err)
			}
			continue
		}
		if _, dup := seen[c.ID]; dup {
			return nil, nil, eris.Wrapf(ErrDuplicateID, "id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
		claims = append(claims, c)
		index.Add(c)
	}
	return claims, index, nil
}

// inSync reports whether memory holds exactly the usable stored claims.
// Callers hold mu.
func (r *Registry) inSync(stored []model.Claim) bool {
	ids := make(map[string]struct{}, len(r.claims))
	for _, c := range r.claims {
		ids[c.ID] = struct{}{}
	}
	n := 0
	for _, c := range stored {
		if usable(c) != nil {
			continue
		}
		if _, ok := ids[c.ID]; !ok {
			return false
		}
		n++
	}
	return n == len(r.claims)
}

// resync replaces memory with stored after another writer changed the
// store. Callers hold mu.
func (r *Registry) resync(stored []model.Claim) bool {
	claims, index, err := r.build(stored, nil)
	if err != nil {
		zap.L().Warn("registry: resync from store failed", zap.Error(err))
		return false
	}
	r.claims = claims
	r.index = index
	zap.L().Info("registry: store changed by another writer, reloaded", zap.Int("count", len(claims)))
	return true
}

// Register validates candidate, checks it against every other owner's
// claims and commits it. A rejected candidate returns *ConflictError and
// leaves the store untouched.
//
// The check runs against the store's own claims inside its checked insert,
// so claims written by other processes since Load are honoured. When the
// store matches memory the spatial index answers the check.
func (r *Registry) Register(ctx context.Context, candidate model.Claim) (model.Claim, error) {
	c := candidate
	c.Owner = strings.TrimSpace(c.Owner)
	c.Branch = strings.TrimSpace(c.Branch)
	c.Place = strings.TrimSpace(c.Place)
	if err := c.Validate(); err != nil {
		return model.Claim{}, err
	}
	if c.ID == "" {
		c.ID = r.newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.position(func(e model.Claim) bool { return e.ID == c.ID }) >= 0 {
		return model.Claim{}, eris.Errorf("registry: claim %s already registered", c.ID)
	}

	var (
		stored []model.Claim
		synced bool
	)
	err := r.store.InsertClaimChecked(ctx, c, func(current []model.Claim) error {
		stored = current
		synced = r.inSync(current)

		var (
			blocking string
			found    bool
		)
		if synced {
			blocking, found = r.index.FindConflict(c)
		} else {
			live := make([]model.Claim, 0, len(current))
			for _, e := range current {
				if usable(e) == nil {
					live = append(live, e)
				}
			}
			blocking, found = conflict.FindConflict(c, live, r.radii)
		}
		if found {
			return &ConflictError{BlockingOwner: blocking}
		}
		return nil
	})

	var ce *ConflictError
	switch {
	case errors.As(err, &ce):
		if !synced {
			r.resync(stored)
		}
		zap.L().Info("registry: claim rejected",
			zap.String("owner", c.Owner),
			zap.String("place", c.Place),
			zap.String("kind", string(c.Kind)),
			zap.String("blocking_owner", ce.BlockingOwner),
		)
		return model.Claim{}, ce
	case err != nil:
		return model.Claim{}, eris.Wrap(err, "registry: persist claim")
	}

	if synced || !r.resync(append(stored, c)) {
		r.claims = append(r.claims, c)
		r.index.Add(c)
	}

	zap.L().Info("registry: claim committed",
		zap.String("id", c.ID),
		zap.String("key", c.Key().String()),
		zap.String("kind", string(c.Kind)),
		zap.Stringer("location", c.Location),
	)
	return c, nil
}

// Remove deletes the claim with the given handle.
func (r *Registry) Remove(ctx context.Context, id string) (model.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.position(func(c model.Claim) bool { return c.ID == id })
	if i < 0 {
		return model.Claim{}, eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return r.removeAt(ctx, i)
}

// RemoveByKey deletes the oldest claim whose owner, branch and place all
// match key.
func (r *Registry) RemoveByKey(ctx context.Context, key model.Key) (model.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.position(func(c model.Claim) bool { return c.Key() == key })
	if i < 0 {
		return model.Claim{}, eris.Wrapf(ErrNotFound, "key %s", key)
	}
	return r.removeAt(ctx, i)
}

func (r *Registry) position(match func(model.Claim) bool) int {
	for i, c := range r.claims {
		if match(c) {
			return i
		}
	}
	return -1
}

// removeAt deletes r.claims[i] from the store and memory. Callers hold mu.
func (r *Registry) removeAt(ctx context.Context, i int) (model.Claim, error) {
	c := r.claims[i]
	if err := r.store.DeleteClaim(ctx, c.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Claim{}, eris.Wrapf(ErrNotFound, "id %s missing from store", c.ID)
		}
		return model.Claim{}, eris.Wrap(err, "registry: delete claim")
	}

	r.claims = append(r.claims[:i:i], r.claims[i+1:]...)
	r.index.Remove(c.ID)

	zap.L().Info("registry: claim removed",
		zap.String("id", c.ID),
		zap.String("key", c.Key().String()),
	)
	return c, nil
}

// RenameOwner moves every claim of oldOwner to newOwner and returns how
// many claims changed. Renaming an owner with no claims is a no-op.
func (r *Registry) RenameOwner(ctx context.Context, oldOwner, newOwner string) (int, error) {
	oldOwner = strings.TrimSpace(oldOwner)
	newOwner = strings.TrimSpace(newOwner)
	if newOwner == "" {
		return 0, ErrOwnerRequired
	}
	if err := model.ValidateLabel(newOwner); err != nil {
		return 0, err
	}
	return r.rewrite(ctx, func(c model.Claim) (model.Claim, bool) {
		if c.Owner != oldOwner || c.Owner == newOwner {
			return c, false
		}
		c.Owner = newOwner
		return c, true
	})
}

// RenameBranch relabels owner's claims in oldBranch as newBranch and
// returns how many claims changed. An empty branch means claims filed
// directly under the owner.
func (r *Registry) RenameBranch(ctx context.Context, owner, oldBranch, newBranch string) (int, error) {
	owner = strings.TrimSpace(owner)
	oldBranch = strings.TrimSpace(oldBranch)
	newBranch = strings.TrimSpace(newBranch)
	if err := model.ValidateLabel(newBranch); err != nil {
		return 0, err
	}
	return r.rewrite(ctx, func(c model.Claim) (model.Claim, bool) {
		if c.Owner != owner || c.Branch != oldBranch || c.Branch == newBranch {
			return c, false
		}
		c.Branch = newBranch
		return c, true
	})
}

// rewrite applies fn to every claim and persists the changed ones in one
// store transaction. Renames never move a claim, so no conflict check is
// needed.
func (r *Registry) rewrite(ctx context.Context, fn func(model.Claim) (model.Claim, bool)) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		changed []model.Claim
		pos     []int
	)
	for i, c := range r.claims {
		if next, ok := fn(c); ok {
			changed = append(changed, next)
			pos = append(pos, i)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	if err := r.store.ReplaceClaims(ctx, changed); err != nil {
		return 0, eris.Wrap(err, "registry: rename claims")
	}
	for j, i := range pos {
		r.claims[i] = changed[j]
		r.index.Replace(changed[j])
	}

	zap.L().Info("registry: claims relabelled", zap.Int("count", len(changed)))
	return len(changed), nil
}

// Get returns the claim with the given handle.
func (r *Registry) Get(id string) (model.Claim, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.claims {
		if c.ID == id {
			return c, true
		}
	}
	return model.Claim{}, false
}

// List returns a copy of the claims of owner in registration order, or of
// every claim when owner is empty.
func (r *Registry) List(owner string) []model.Claim {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Claim, 0, len(r.claims))
	for _, c := range r.claims {
		if owner == "" || c.Owner == owner {
			out = append(out, c)
		}
	}
	return out
}

// Owners summarizes the registered claims per owner and branch.
func (r *Registry) Owners() []model.OwnerSummary {
	return model.SummarizeOwners(r.List(""))
}

// Len returns the number of registered claims.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.claims)
}
