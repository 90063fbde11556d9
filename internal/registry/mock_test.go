package registry

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sojunghan/territory-cli/internal/model"
)

// mockStore implements store.ClaimStore for testing failure paths.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) ListClaims(ctx context.Context) ([]model.Claim, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Claim), args.Error(1)
}

func (m *mockStore) InsertClaim(ctx context.Context, c model.Claim) error {
	return m.Called(ctx, c).Error(0)
}

// InsertClaimChecked returns the configured error, or else runs check over
// the configured stored claims.
func (m *mockStore) InsertClaimChecked(ctx context.Context, c model.Claim, check func([]model.Claim) error) error {
	args := m.Called(ctx, c)
	if err := args.Error(1); err != nil {
		return err
	}
	stored, _ := args.Get(0).([]model.Claim)
	return check(stored)
}

func (m *mockStore) DeleteClaim(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) ReplaceClaims(ctx context.Context, claims []model.Claim) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
