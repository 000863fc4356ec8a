package businessflow

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
	"golang.org/x/crypto/bcrypt"
)

// AuthFlow handles signup, signin and password recovery
type AuthFlow interface {
	Signup(ctx context.Context, req *dto.SignupRequest, avatarPath string, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Logout(ctx context.Context, account *models.Account, metadata *ClientMetadata)
	Me(ctx context.Context, accountID uint) (*models.Account, error)
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest, metadata *ClientMetadata) error
	VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest, metadata *ClientMetadata) error
}

// AuthFlowImpl implements AuthFlow
type AuthFlowImpl struct {
	accountRepo     repository.AccountRepository
	franchiseRepo   repository.FranchiseRepository
	tx              repository.Transactor
	gate            AccessGate
	tokenService    services.TokenService
	notificationSvc services.NotificationService
	uploader        services.MediaUploader
	audit           auditRecorder
	bcryptCost      int
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	accountRepo repository.AccountRepository,
	franchiseRepo repository.FranchiseRepository,
	auditRepo repository.AuditLogRepository,
	tx repository.Transactor,
	gate AccessGate,
	tokenService services.TokenService,
	notificationSvc services.NotificationService,
	uploader services.MediaUploader,
	bcryptCost int,
) AuthFlow {
	return &AuthFlowImpl{
		accountRepo:     accountRepo,
		franchiseRepo:   franchiseRepo,
		tx:              tx,
		gate:            gate,
		tokenService:    tokenService,
		notificationSvc: notificationSvc,
		uploader:        uploader,
		audit:           auditRecorder{repo: auditRepo},
		bcryptCost:      resolveBcryptCost(bcryptCost),
	}
}

// resolveBcryptCost falls back to the default cost when none is configured
func resolveBcryptCost(cost int) int {
	if cost <= 0 {
		return utils.BcryptCost
	}
	return cost
}

// signupRole maps the requested role onto the roles open to self registration.
// Franchise and superadmin accounts are never self registered.
func signupRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == models.RoleAgent {
		return models.RoleAgent
	}
	return models.RoleUser
}

// Signup registers a user or agent account and opens a session for it
func (af *AuthFlowImpl) Signup(ctx context.Context, req *dto.SignupRequest, avatarPath string, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	defer removeTemp(avatarPath)

	role := signupRole(req.Role)
	email := utils.NormalizeEmail(req.Email)
	contact := strings.TrimSpace(req.Contact)

	exists, err := identityTaken(ctx, af.accountRepo, email, contact)
	if err != nil {
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
	}
	if exists {
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", ErrAccountAlreadyExists)
	}

	var franchise *models.Franchise
	if role == models.RoleAgent {
		if req.FranchiseID == nil || *req.FranchiseID == 0 {
			return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", ErrFranchiseIDRequired)
		}
		franchise, err = af.franchiseRepo.ByID(ctx, *req.FranchiseID)
		if err != nil {
			return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
		}
		if franchise == nil {
			return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", ErrFranchiseNotFound)
		}
	}

	if avatarPath == "" {
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", ErrAvatarRequired)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), af.bcryptCost)
	if err != nil {
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
	}

	avatar := uploadTemp(ctx, af.uploader, avatarPath, utils.DefaultMediaFolder, utils.ResourceTypeImage)
	if avatar == nil {
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", ErrAvatarUploadFailed)
	}

	account := &models.Account{
		Name:         strings.TrimSpace(req.Name),
		Contact:      contact,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Avatar:       avatar.URL,
	}
	if franchise != nil {
		account.FranchiseID = utils.ToPtr(franchise.ID)
	}

	err = af.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := af.accountRepo.Save(ctx, account); err != nil {
			return conflictAsExisting(err)
		}
		if franchise != nil {
			return af.franchiseRepo.AddAgent(ctx, franchise.ID, account.ID)
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
	}

	session, err := af.tokenService.IssueSession(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", errors.Join(ErrSessionIssueFailed, err))
	}

	af.audit.record(ctx, &account.ID, models.AuditActionSignupCompleted,
		fmt.Sprintf("Account registered with role %s", account.Role), true, nil, metadata)

	return &dto.AuthResponse{User: account, Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// Login authenticates with email or contact and password, then runs the access gate
func (af *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	identifier := req.ResolvedIdentifier()
	if identifier == "" {
		return nil, NewBusinessError("LOGIN_VALIDATION_FAILED", "Login validation failed", ErrIdentifierRequired)
	}

	var account *models.Account
	resp, err := func() (*dto.AuthResponse, error) {
		var err error
		account, err = af.accountRepo.ByIdentifier(ctx, identifier)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, ErrAccountNotFound
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
			return nil, ErrIncorrectPassword
		}

		if err := af.gate.CheckLogin(ctx, account); err != nil {
			return nil, err
		}

		session, err := af.tokenService.IssueSession(account.ID, account.Email, account.Role)
		if err != nil {
			return nil, errors.Join(ErrSessionIssueFailed, err)
		}

		user := account
		if withFranchise, err := af.accountRepo.ByIDWithFranchise(ctx, account.ID); err == nil && withFranchise != nil {
			user = withFranchise
		}

		return &dto.AuthResponse{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
	}()

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		af.audit.record(ctx, accountIDPtr(account), models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("Account logged in successfully: %d", account.ID)
	af.audit.record(ctx, &account.ID, models.AuditActionLoginSuccess, msg, true, nil, metadata)

	return resp, nil
}

// Logout records the event; the session cookie is cleared by the handler
func (af *AuthFlowImpl) Logout(ctx context.Context, account *models.Account, metadata *ClientMetadata) {
	if account == nil {
		return
	}
	af.audit.record(ctx, &account.ID, models.AuditActionLogout, "Account logged out", true, nil, metadata)
}

func (af *AuthFlowImpl) Me(ctx context.Context, accountID uint) (*models.Account, error) {
	account, err := af.accountRepo.ByIDWithFranchise(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}
	return account, nil
}

// ForgotPassword stores a hashed reset code and emails it. Unknown emails succeed silently.
func (af *AuthFlowImpl) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest, metadata *ClientMetadata) error {
	account, err := af.accountRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return NewBusinessError("FORGOT_PASSWORD_FAILED", "Forgot password failed", err)
	}
	if account == nil {
		log.Printf("password reset requested for unknown email")
		return nil
	}

	otpCode, err := GenerateOTP()
	if err != nil {
		return NewBusinessError("FORGOT_PASSWORD_FAILED", "Forgot password failed", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(otpCode), af.bcryptCost)
	if err != nil {
		return NewBusinessError("FORGOT_PASSWORD_FAILED", "Forgot password failed", err)
	}

	expiresAt := utils.UTCNowAdd(utils.OTPExpiry)
	if err := af.accountRepo.SetResetOTP(ctx, account.ID, utils.ToPtr(string(hash)), &expiresAt); err != nil {
		return NewBusinessError("FORGOT_PASSWORD_FAILED", "Forgot password failed", err)
	}

	message := fmt.Sprintf("Your password reset code is: %s. This code will expire in %d minutes.", otpCode, int(utils.OTPExpiry.Minutes()))
	if err := af.notificationSvc.SendEmail(ctx, account.Email, "Password reset code", message); err != nil {
		// the code stays valid; the user may request another one
		errMsg := fmt.Sprintf("OTP generated but email failed: %v", err)
		af.audit.record(ctx, &account.ID, models.AuditActionPasswordResetFailed, errMsg, false, &errMsg, metadata)
		return nil
	}

	af.audit.record(ctx, &account.ID, models.AuditActionPasswordResetRequested, "Password reset code sent", true, nil, metadata)
	return nil
}

func (af *AuthFlowImpl) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) error {
	if _, err := af.verifyResetCode(ctx, req.Email, req.OTP); err != nil {
		return NewBusinessError("VERIFY_OTP_FAILED", "OTP verification failed", err)
	}
	return nil
}

// ResetPassword replaces the password and clears the reset code in one transaction.
// The code is checked before the transaction so a failed attempt is counted.
func (af *AuthFlowImpl) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest, metadata *ClientMetadata) error {
	account, err := af.verifyResetCode(ctx, req.Email, req.OTP)
	if err == nil {
		err = af.tx.WithTransaction(ctx, func(ctx context.Context) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), af.bcryptCost)
			if err != nil {
				return err
			}
			if err := af.accountRepo.UpdatePassword(ctx, account.ID, string(hash)); err != nil {
				return err
			}
			return af.accountRepo.SetResetOTP(ctx, account.ID, nil, nil)
		})
	}
	if err != nil {
		errMsg := fmt.Sprintf("Password reset failed: %s", err.Error())
		af.audit.record(ctx, accountIDPtr(account), models.AuditActionPasswordResetFailed, errMsg, false, &errMsg, metadata)
		return NewBusinessError("RESET_PASSWORD_FAILED", "Password reset failed", err)
	}

	af.audit.record(ctx, &account.ID, models.AuditActionPasswordResetCompleted, "Password reset completed", true, nil, metadata)
	return nil
}

func (af *AuthFlowImpl) verifyResetCode(ctx context.Context, email, code string) (*models.Account, error) {
	account, err := af.accountRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil || account.OTPHash == nil || utils.IsExpiredPtr(account.OTPExpiresAt) {
		return nil, ErrInvalidOTP
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*account.OTPHash), []byte(code)); err != nil {
		cleared, recErr := af.accountRepo.RecordOTPFailure(ctx, account.ID, utils.OTPMaxAttempts)
		if recErr != nil {
			log.Printf("failed to record reset code attempt for account %d: %v", account.ID, recErr)
		} else if cleared {
			log.Printf("reset code discarded for account %d after %d wrong attempts", account.ID, utils.OTPMaxAttempts)
		}
		return nil, ErrInvalidOTP
	}
	return account, nil
}

// identityTaken reports whether email or contact already belongs to an account
func identityTaken(ctx context.Context, repo repository.AccountRepository, email, contact string) (bool, error) {
	exists, err := repo.Exists(ctx, models.AccountFilter{Email: &email})
	if err != nil || exists {
		return exists, err
	}
	return repo.Exists(ctx, models.AccountFilter{Contact: &contact})
}

// conflictAsExisting keeps the duplicate-key detail while tagging it as an existing account
func conflictAsExisting(err error) error {
	if IsDuplicateKey(err) {
		return errors.Join(ErrAccountAlreadyExists, err)
	}
	return err
}

// GenerateOTP returns a random 6 digit code
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
