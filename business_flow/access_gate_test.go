package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/property-guru/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBlockedAccountStatus(t *testing.T) {
	cases := map[string]bool{
		models.AccountStatusActive:   false,
		models.AccountStatusInactive: true,
		models.AccountStatusPending:  true,
		models.AccountStatusRejected: true,
		"":                           false,
		"suspended":                  false,
	}
	for status, blocked := range cases {
		assert.Equal(t, blocked, IsBlockedAccountStatus(status), "status %q", status)
	}
}

func TestIsBlockedFranchiseStatus(t *testing.T) {
	cases := map[string]bool{
		models.FranchiseStatusApproved: false,
		models.FranchiseStatusPending:  true,
		models.FranchiseStatusRejected: true,
		"active":                       true,
		"":                             true,
	}
	for status, blocked := range cases {
		assert.Equal(t, blocked, IsBlockedFranchiseStatus(status), "status %q", status)
	}
}

type gateFixture struct {
	accounts   *fakeAccountRepo
	franchises *fakeFranchiseRepo
	gate       AccessGate
}

func newGateFixture(t *testing.T) *gateFixture {
	accounts := newFakeAccountRepo()
	franchises := newFakeFranchiseRepo()
	return &gateFixture{
		accounts:   accounts,
		franchises: franchises,
		gate:       NewAccessGate(accounts, franchises, newTestTokenService(t)),
	}
}

func TestAccessGate_CheckLogin(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *gateFixture) *models.Account
		wantErr error
	}{
		{
			name: "active user passes",
			setup: func(f *gateFixture) *models.Account {
				return f.accounts.put(&models.Account{Email: "u@x.io", Contact: "1", Role: models.RoleUser, Status: models.AccountStatusActive})
			},
		},
		{
			name: "inactive agent is refused before franchise checks",
			setup: func(f *gateFixture) *models.Account {
				return f.accounts.put(&models.Account{Email: "a@x.io", Contact: "2", Role: models.RoleAgent, Status: models.AccountStatusInactive})
			},
			wantErr: ErrAccountInactive,
		},
		{
			name: "legacy pending account is refused",
			setup: func(f *gateFixture) *models.Account {
				return f.accounts.put(&models.Account{Email: "p@x.io", Contact: "3", Role: models.RoleUser, Status: models.AccountStatusPending})
			},
			wantErr: ErrAccountInactive,
		},
		{
			name: "franchise account with approved franchise passes",
			setup: func(f *gateFixture) *models.Account {
				f.franchises.put(&models.Franchise{Email: "f@x.io", Status: models.FranchiseStatusApproved})
				return f.accounts.put(&models.Account{Email: "f@x.io", Contact: "4", Role: models.RoleFranchise, Status: models.AccountStatusActive})
			},
		},
		{
			name: "franchise account with pending franchise is refused",
			setup: func(f *gateFixture) *models.Account {
				f.franchises.put(&models.Franchise{Email: "f@x.io", Status: models.FranchiseStatusPending})
				return f.accounts.put(&models.Account{Email: "f@x.io", Contact: "4", Role: models.RoleFranchise, Status: models.AccountStatusActive})
			},
			wantErr: ErrFranchiseAccountInactive,
		},
		{
			name: "franchise account without a franchise record is refused",
			setup: func(f *gateFixture) *models.Account {
				return f.accounts.put(&models.Account{Email: "ghost@x.io", Contact: "5", Role: models.RoleFranchise, Status: models.AccountStatusActive})
			},
			wantErr: ErrFranchiseAccountInactive,
		},
		{
			name: "agent of approved franchise passes",
			setup: func(f *gateFixture) *models.Account {
				fr := f.franchises.put(&models.Franchise{Email: "f@x.io", Status: models.FranchiseStatusApproved})
				return f.accounts.put(&models.Account{Email: "a@x.io", Contact: "6", Role: models.RoleAgent, Status: models.AccountStatusActive, FranchiseID: uintPtr(fr.ID)})
			},
		},
		{
			name: "agent of rejected franchise is refused",
			setup: func(f *gateFixture) *models.Account {
				fr := f.franchises.put(&models.Franchise{Email: "f@x.io", Status: models.FranchiseStatusRejected})
				return f.accounts.put(&models.Account{Email: "a@x.io", Contact: "6", Role: models.RoleAgent, Status: models.AccountStatusActive, FranchiseID: uintPtr(fr.ID)})
			},
			wantErr: ErrOwningFranchiseInactive,
		},
		{
			name: "agent without franchise passes",
			setup: func(f *gateFixture) *models.Account {
				return f.accounts.put(&models.Account{Email: "a@x.io", Contact: "6", Role: models.RoleAgent, Status: models.AccountStatusActive})
			},
		},
		{
			name: "agent whose franchise was removed passes",
			setup: func(f *gateFixture) *models.Account {
				return f.accounts.put(&models.Account{Email: "a@x.io", Contact: "6", Role: models.RoleAgent, Status: models.AccountStatusActive, FranchiseID: uintPtr(99)})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateFixture(t)
			account := tt.setup(f)

			err := f.gate.CheckLogin(context.Background(), account)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccessGate_CheckLogin_BackfillsFranchiseLink(t *testing.T) {
	f := newGateFixture(t)
	fr := f.franchises.put(&models.Franchise{Email: "f@x.io", Status: models.FranchiseStatusApproved})
	account := f.accounts.put(&models.Account{Email: "f@x.io", Contact: "1", Role: models.RoleFranchise, Status: models.AccountStatusActive})

	require.NoError(t, f.gate.CheckLogin(context.Background(), account))

	require.NotNil(t, account.FranchiseID)
	assert.Equal(t, fr.ID, *account.FranchiseID)
	stored := f.accounts.get(account.ID)
	require.NotNil(t, stored.FranchiseID)
	assert.Equal(t, fr.ID, *stored.FranchiseID)
}

func TestAccessGate_CheckLogin_BackfillFailureDoesNotBlock(t *testing.T) {
	f := newGateFixture(t)
	f.accounts.backfillErr = errors.New("write failed")
	f.franchises.put(&models.Franchise{Email: "f@x.io", Status: models.FranchiseStatusApproved})
	account := f.accounts.put(&models.Account{Email: "f@x.io", Contact: "1", Role: models.RoleFranchise, Status: models.AccountStatusActive})

	assert.NoError(t, f.gate.CheckLogin(context.Background(), account))
	assert.Nil(t, account.FranchiseID)
}

func TestAccessGate_ResolveSession(t *testing.T) {
	f := newGateFixture(t)
	tokens := newTestTokenService(t)
	account := f.accounts.put(&models.Account{Email: "u@x.io", Contact: "1", Role: models.RoleUser, Status: models.AccountStatusActive})

	valid, err := tokens.IssueSession(account.ID, account.Email, account.Role)
	require.NoError(t, err)
	orphan, err := tokens.IssueSession(404, "gone@x.io", models.RoleUser)
	require.NoError(t, err)

	t.Run("valid token resolves the account", func(t *testing.T) {
		got, err := f.gate.ResolveSession(context.Background(), valid.Token)
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := f.gate.ResolveSession(context.Background(), "")
		assert.True(t, IsTokenMissing(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.gate.ResolveSession(context.Background(), "not-a-jwt")
		assert.True(t, IsTokenInvalid(err))
		assert.Equal(t, "SESSION_INVALID", BusinessCode(err))
	})

	t.Run("token of a deleted account", func(t *testing.T) {
		_, err := f.gate.ResolveSession(context.Background(), orphan.Token)
		assert.True(t, IsUserNotFound(err))
	})
}
