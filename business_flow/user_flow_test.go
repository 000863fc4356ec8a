package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAccountEdit(t *testing.T) {
	tests := []struct {
		name    string
		req     *dto.UpdateAccountRequest
		wantErr error
		check   func(t *testing.T, a *models.Account)
	}{
		{name: "nil request", req: nil, check: func(t *testing.T, a *models.Account) { assert.Equal(t, "Ann", a.Name) }},
		{name: "same role is accepted", req: &dto.UpdateAccountRequest{Role: strPtr("User")}},
		{name: "role change refused", req: &dto.UpdateAccountRequest{Role: strPtr(models.RoleAgent)}, wantErr: ErrRoleChangeNotAllowed},
		{name: "unknown status refused", req: &dto.UpdateAccountRequest{Status: strPtr(models.AccountStatusPending)}, wantErr: ErrInvalidStatus},
		{
			name: "fields are trimmed",
			req:  &dto.UpdateAccountRequest{Name: strPtr(" Bob "), Contact: strPtr(" 42 "), Email: strPtr(" BOB@X.io"), Status: strPtr(models.AccountStatusInactive)},
			check: func(t *testing.T, a *models.Account) {
				assert.Equal(t, "Bob", a.Name)
				assert.Equal(t, "42", a.Contact)
				assert.Equal(t, "bob@x.io", a.Email)
				assert.Equal(t, models.AccountStatusInactive, a.Status)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &models.Account{Name: "Ann", Role: models.RoleUser, Status: models.AccountStatusActive}
			err := applyAccountEdit(a, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, a)
			}
		})
	}
}

func newUserFlowFixture() (*fakeAccountRepo, *fakeFranchiseRepo, *fakeUploader, UserFlow) {
	accounts := newFakeAccountRepo()
	franchises := newFakeFranchiseRepo()
	uploader := &fakeUploader{}
	return accounts, franchises, uploader, NewUserFlow(accounts, franchises, newFakeAuditRepo(), &fakeTx{}, uploader)
}

func TestUserFlow_ListUsers(t *testing.T) {
	accounts, _, _, flow := newUserFlowFixture()
	accounts.put(&models.Account{Email: "u@x.io", Contact: "1", Role: models.RoleUser})
	accounts.put(&models.Account{Email: "a@x.io", Contact: "2", Role: models.RoleAgent})

	users, err := flow.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleUser, users[0].Role)
}

func TestUserFlow_UpdateUser(t *testing.T) {
	ctx := context.Background()
	accounts, _, uploader, flow := newUserFlowFixture()
	user := accounts.put(&models.Account{Email: "u@x.io", Contact: "1", Role: models.RoleUser, Status: models.AccountStatusActive})
	accounts.put(&models.Account{Email: "taken@x.io", Contact: "2", Role: models.RoleUser})

	avatar := tempUpload(t, "me.png")
	got, err := flow.UpdateUser(ctx, user.ID, &dto.UpdateAccountRequest{Name: strPtr("New")}, avatar)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Contains(t, got.Avatar, "me.png")
	assert.False(t, fileExists(avatar))

	_, err = flow.UpdateUser(ctx, user.ID, &dto.UpdateAccountRequest{Email: strPtr("taken@x.io")}, "")
	assert.True(t, IsAccountAlreadyExists(err))
	assert.Equal(t, "email", DuplicateField(err))

	uploader.fail = true
	_, err = flow.UpdateUser(ctx, user.ID, &dto.UpdateAccountRequest{}, tempUpload(t, "x.png"))
	assert.True(t, IsAvatarUploadFailed(err))

	_, err = flow.UpdateUser(ctx, 999, &dto.UpdateAccountRequest{}, "")
	assert.True(t, IsUserNotFound(err))
}

func TestUserFlow_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("agent leaves every roster", func(t *testing.T) {
		accounts, franchises, _, flow := newUserFlowFixture()
		fr := franchises.put(&models.Franchise{Email: "f@x.io"})
		agent := accounts.put(&models.Account{Email: "a@x.io", Contact: "1", Role: models.RoleAgent, FranchiseID: uintPtr(fr.ID)})
		require.NoError(t, franchises.AddAgent(ctx, fr.ID, agent.ID))

		require.NoError(t, flow.DeleteUser(ctx, agent.ID, nil))
		assert.Nil(t, accounts.get(agent.ID))
		assert.False(t, franchises.get(fr.ID).HasAgent(agent.ID))
	})

	t.Run("franchise account leaves the franchise in place", func(t *testing.T) {
		accounts, franchises, _, flow := newUserFlowFixture()
		owner := accounts.put(&models.Account{Email: "f@x.io", Contact: "1", Role: models.RoleFranchise})
		fr := franchises.put(&models.Franchise{Email: "f@x.io", AccountID: uintPtr(owner.ID)})

		require.NoError(t, flow.DeleteUser(ctx, owner.ID, nil))
		assert.Nil(t, accounts.get(owner.ID))
		assert.NotNil(t, franchises.get(fr.ID))
	})

	t.Run("missing account", func(t *testing.T) {
		_, _, _, flow := newUserFlowFixture()
		assert.True(t, IsUserNotFound(flow.DeleteUser(ctx, 404, nil)))
	})
}
