package businessflow

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	accounts   *fakeAccountRepo
	franchises *fakeFranchiseRepo
	audit      *fakeAuditRepo
	tx         *fakeTx
	uploader   *fakeUploader
	email      *fakeEmailProvider
	tokens     services.TokenService
	flow       AuthFlow
}

func newAuthFixture(t *testing.T) *authFixture {
	f := &authFixture{
		accounts:   newFakeAccountRepo(),
		franchises: newFakeFranchiseRepo(),
		audit:      newFakeAuditRepo(),
		tx:         &fakeTx{},
		uploader:   &fakeUploader{},
		email:      &fakeEmailProvider{},
		tokens:     newTestTokenService(t),
	}
	gate := NewAccessGate(f.accounts, f.franchises, f.tokens)
	f.flow = NewAuthFlow(f.accounts, f.franchises, f.audit, f.tx, gate, f.tokens,
		services.NewNotificationService(f.email, 0, 0), f.uploader, bcrypt.MinCost)
	return f
}

func (f *authFixture) seedAccount(t *testing.T, a *models.Account, password string) *models.Account {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	a.PasswordHash = string(hash)
	return f.accounts.put(a)
}

func TestGenerateOTP(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for range 50 {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		assert.Regexp(t, re, otp)
	}
}

func TestAuthFlow_Signup(t *testing.T) {
	tests := []struct {
		name     string
		req      func(f *authFixture) *dto.SignupRequest
		noAvatar bool
		failUp   bool
		wantErr  error
		check    func(t *testing.T, f *authFixture, resp *dto.AuthResponse)
	}{
		{
			name: "user signup issues a session",
			req: func(f *authFixture) *dto.SignupRequest {
				return &dto.SignupRequest{Name: "Ann", Contact: "5550001", Email: "Ann@X.io ", Password: "secret1"}
			},
			check: func(t *testing.T, f *authFixture, resp *dto.AuthResponse) {
				assert.Equal(t, models.RoleUser, resp.User.Role)
				assert.Equal(t, "ann@x.io", resp.User.Email)
				assert.Equal(t, models.AccountStatusActive, resp.User.Status)
				assert.NotEmpty(t, resp.User.Avatar)
				claims, err := f.tokens.ValidateSession(resp.Token)
				require.NoError(t, err)
				assert.Equal(t, resp.User.ID, claims.AccountID)
				assert.Contains(t, f.audit.actions(), models.AuditActionSignupCompleted)
			},
		},
		{
			name: "privileged roles fall back to user",
			req: func(f *authFixture) *dto.SignupRequest {
				return &dto.SignupRequest{Name: "Eve", Contact: "5550002", Email: "eve@x.io", Password: "secret1", Role: models.RoleSuperAdmin}
			},
			check: func(t *testing.T, f *authFixture, resp *dto.AuthResponse) {
				assert.Equal(t, models.RoleUser, resp.User.Role)
			},
		},
		{
			name: "agent signup is inactive and joins the roster",
			req: func(f *authFixture) *dto.SignupRequest {
				fr := f.franchises.put(&models.Franchise{Email: "f@x.io", Status: models.FranchiseStatusApproved})
				return &dto.SignupRequest{Name: "Agt", Contact: "5550003", Email: "agt@x.io", Password: "secret1", Role: "Agent", FranchiseID: uintPtr(fr.ID)}
			},
			check: func(t *testing.T, f *authFixture, resp *dto.AuthResponse) {
				assert.Equal(t, models.RoleAgent, resp.User.Role)
				assert.Equal(t, models.AccountStatusInactive, resp.User.Status)
				require.NotNil(t, resp.User.FranchiseID)
				assert.True(t, f.franchises.get(*resp.User.FranchiseID).HasAgent(resp.User.ID))
				assert.Equal(t, 1, f.tx.calls)
			},
		},
		{
			name: "agent signup without franchise id",
			req: func(f *authFixture) *dto.SignupRequest {
				return &dto.SignupRequest{Name: "Agt", Contact: "5550003", Email: "agt@x.io", Password: "secret1", Role: models.RoleAgent}
			},
			wantErr: ErrFranchiseIDRequired,
		},
		{
			name: "agent signup with unknown franchise",
			req: func(f *authFixture) *dto.SignupRequest {
				return &dto.SignupRequest{Name: "Agt", Contact: "5550003", Email: "agt@x.io", Password: "secret1", Role: models.RoleAgent, FranchiseID: uintPtr(42)}
			},
			wantErr: ErrFranchiseNotFound,
		},
		{
			name: "duplicate email",
			req: func(f *authFixture) *dto.SignupRequest {
				f.accounts.put(&models.Account{Email: "dup@x.io", Contact: "1", Role: models.RoleUser})
				return &dto.SignupRequest{Name: "Dup", Contact: "5550004", Email: "dup@x.io", Password: "secret1"}
			},
			wantErr: ErrAccountAlreadyExists,
		},
		{
			name: "duplicate contact",
			req: func(f *authFixture) *dto.SignupRequest {
				f.accounts.put(&models.Account{Email: "other@x.io", Contact: "5550005", Role: models.RoleUser})
				return &dto.SignupRequest{Name: "Dup", Contact: "5550005", Email: "new@x.io", Password: "secret1"}
			},
			wantErr: ErrAccountAlreadyExists,
		},
		{
			name: "avatar is required",
			req: func(f *authFixture) *dto.SignupRequest {
				return &dto.SignupRequest{Name: "Ann", Contact: "5550006", Email: "ann@x.io", Password: "secret1"}
			},
			noAvatar: true,
			wantErr:  ErrAvatarRequired,
		},
		{
			name: "failed avatar upload",
			req: func(f *authFixture) *dto.SignupRequest {
				return &dto.SignupRequest{Name: "Ann", Contact: "5550007", Email: "ann@x.io", Password: "secret1"}
			},
			failUp:  true,
			wantErr: ErrAvatarUploadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			f.uploader.fail = tt.failUp
			req := tt.req(f)

			avatar := ""
			if !tt.noAvatar {
				avatar = tempUpload(t, "avatar.png")
			}

			resp, err := f.flow.Signup(context.Background(), req, avatar, NewClientMetadata("127.0.0.1", "test"))
			if avatar != "" {
				assert.False(t, fileExists(avatar), "temp avatar must be removed")
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "SIGNUP_FAILED", BusinessCode(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, f, resp)
		})
	}
}

func TestAuthFlow_Login(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedAccount(t, &models.Account{Name: "Ann", Email: "ann@x.io", Contact: "5550001", Role: models.RoleUser, Status: models.AccountStatusActive}, "secret1")
	f.seedAccount(t, &models.Account{Name: "Ina", Email: "ina@x.io", Contact: "5550002", Role: models.RoleAgent, Status: models.AccountStatusInactive}, "secret1")
	f.franchises.put(&models.Franchise{Email: "fr@x.io", Status: models.FranchiseStatusPending})
	f.seedAccount(t, &models.Account{Name: "Fr", Email: "fr@x.io", Contact: "5550003", Role: models.RoleFranchise, Status: models.AccountStatusActive}, "secret1")

	tests := []struct {
		name    string
		req     dto.LoginRequest
		wantErr error
	}{
		{name: "by identifier email", req: dto.LoginRequest{Identifier: "ann@x.io", Password: "secret1"}},
		{name: "by email field", req: dto.LoginRequest{Email: "ANN@x.io", Password: "secret1"}},
		{name: "by contact", req: dto.LoginRequest{Contact: "5550001", Password: "secret1"}},
		{name: "wrong password", req: dto.LoginRequest{Email: "ann@x.io", Password: "nope"}, wantErr: ErrIncorrectPassword},
		{name: "unknown account", req: dto.LoginRequest{Email: "who@x.io", Password: "secret1"}, wantErr: ErrAccountNotFound},
		{name: "inactive agent", req: dto.LoginRequest{Email: "ina@x.io", Password: "secret1"}, wantErr: ErrAccountInactive},
		{name: "pending franchise", req: dto.LoginRequest{Email: "fr@x.io", Password: "secret1"}, wantErr: ErrFranchiseAccountInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.flow.Login(context.Background(), &tt.req, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "LOGIN_FAILED", BusinessCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, resp.User.ID)
			assert.NotEmpty(t, resp.Token)
		})
	}

	t.Run("missing identifier", func(t *testing.T) {
		_, err := f.flow.Login(context.Background(), &dto.LoginRequest{Password: "x"}, nil)
		assert.True(t, IsIdentifierRequired(err))
	})

	t.Run("both outcomes are audited", func(t *testing.T) {
		actions := f.audit.actions()
		assert.Contains(t, actions, models.AuditActionLoginSuccess)
		assert.Contains(t, actions, models.AuditActionLoginFailed)
	})
}

var otpPattern = regexp.MustCompile(`\b(\d{6})\b`)

func TestAuthFlow_PasswordResetRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	f.seedAccount(t, &models.Account{Name: "Ann", Email: "ann@x.io", Contact: "5550001", Role: models.RoleUser, Status: models.AccountStatusActive}, "oldpass")
	ctx := context.Background()

	require.NoError(t, f.flow.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "ann@x.io"}, nil))
	mail := f.email.last()
	assert.Equal(t, "ann@x.io", mail.to)
	m := otpPattern.FindStringSubmatch(mail.body)
	require.Len(t, m, 2)
	code := m[1]

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.True(t, IsInvalidOTP(f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{Email: "ann@x.io", OTP: wrong})))
	require.NoError(t, f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{Email: "ann@x.io", OTP: code}))

	require.NoError(t, f.flow.ResetPassword(ctx, &dto.ResetPasswordRequest{Email: "ann@x.io", OTP: code, NewPassword: "newpass"}, nil))

	_, err := f.flow.Login(ctx, &dto.LoginRequest{Email: "ann@x.io", Password: "oldpass"}, nil)
	assert.True(t, IsIncorrectPassword(err))
	_, err = f.flow.Login(ctx, &dto.LoginRequest{Email: "ann@x.io", Password: "newpass"}, nil)
	assert.NoError(t, err)

	// the code is single use
	err = f.flow.ResetPassword(ctx, &dto.ResetPasswordRequest{Email: "ann@x.io", OTP: code, NewPassword: "again1"}, nil)
	assert.True(t, IsInvalidOTP(err))

	assert.Contains(t, f.audit.actions(), models.AuditActionPasswordResetCompleted)
}

func TestAuthFlow_ResetCodeDiscardedAfterRepeatedFailures(t *testing.T) {
	f := newAuthFixture(t)
	acc := f.seedAccount(t, &models.Account{Name: "Ann", Email: "ann@x.io", Contact: "5550001", Role: models.RoleUser, Status: models.AccountStatusActive}, "oldpass")
	ctx := context.Background()

	require.NoError(t, f.flow.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "ann@x.io"}, nil))
	m := otpPattern.FindStringSubmatch(f.email.last().body)
	require.Len(t, m, 2)
	code := m[1]
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < utils.OTPMaxAttempts-1; i++ {
		assert.True(t, IsInvalidOTP(f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{Email: "ann@x.io", OTP: wrong})))
	}
	require.NotNil(t, f.accounts.get(acc.ID).OTPHash)

	// the last allowed failure goes through reset-password and still counts
	err := f.flow.ResetPassword(ctx, &dto.ResetPasswordRequest{Email: "ann@x.io", OTP: wrong, NewPassword: "newpass"}, nil)
	assert.True(t, IsInvalidOTP(err))
	assert.Nil(t, f.accounts.get(acc.ID).OTPHash)

	assert.True(t, IsInvalidOTP(f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{Email: "ann@x.io", OTP: code})))

	// a fresh code starts a new count
	require.NoError(t, f.flow.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "ann@x.io"}, nil))
	assert.Equal(t, 0, f.accounts.get(acc.ID).OTPAttempts)
	m = otpPattern.FindStringSubmatch(f.email.last().body)
	require.Len(t, m, 2)
	require.NoError(t, f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{Email: "ann@x.io", OTP: m[1]}))
}

func TestAuthFlow_UsesConfiguredBcryptCost(t *testing.T) {
	f := newAuthFixture(t)
	acc := f.seedAccount(t, &models.Account{Email: "ann@x.io", Contact: "1", Role: models.RoleUser, Status: models.AccountStatusActive}, "p")

	require.NoError(t, f.flow.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{Email: "ann@x.io"}, nil))
	otpHash := f.accounts.get(acc.ID).OTPHash
	require.NotNil(t, otpHash)
	cost, err := bcrypt.Cost([]byte(*otpHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.Equal(t, utils.BcryptCost, resolveBcryptCost(0))
	assert.Equal(t, 12, resolveBcryptCost(12))
}

func TestSignupRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"agent", models.RoleAgent},
		{" Agent ", models.RoleAgent},
		{"user", models.RoleUser},
		{"", models.RoleUser},
		{"landlord", models.RoleUser},
		{models.RoleFranchise, models.RoleUser},
		{models.RoleSuperAdmin, models.RoleUser},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, signupRole(tt.in), "role %q", tt.in)
	}
}

func TestAuthFlow_ForgotPassword_EdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email succeeds without mail", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.flow.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "who@x.io"}, nil))
		assert.Empty(t, f.email.sent)
	})

	t.Run("delivery failure is not returned", func(t *testing.T) {
		f := newAuthFixture(t)
		f.email.fail = true
		acc := f.seedAccount(t, &models.Account{Email: "ann@x.io", Contact: "1", Role: models.RoleUser, Status: models.AccountStatusActive}, "p")
		require.NoError(t, f.flow.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "ann@x.io"}, nil))
		assert.NotNil(t, f.accounts.get(acc.ID).OTPHash)
		assert.Contains(t, f.audit.actions(), models.AuditActionPasswordResetFailed)
	})

	t.Run("expired code is refused", func(t *testing.T) {
		f := newAuthFixture(t)
		hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
		require.NoError(t, err)
		past := utils.UTCNow().Add(-time.Minute)
		f.accounts.put(&models.Account{Email: "ann@x.io", Contact: "1", Role: models.RoleUser, OTPHash: strPtr(string(hash)), OTPExpiresAt: &past})
		err = f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{Email: "ann@x.io", OTP: "123456"})
		assert.True(t, IsInvalidOTP(err))
	})
}

func TestAuthFlow_Me(t *testing.T) {
	f := newAuthFixture(t)
	acc := f.accounts.put(&models.Account{Email: "ann@x.io", Contact: "1", Role: models.RoleUser})

	got, err := f.flow.Me(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	_, err = f.flow.Me(context.Background(), 999)
	assert.True(t, IsUserNotFound(err))
}
