package repository

import (
	"context"
	"time"

	"github.com/amirphl/property-guru/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uint) (bool, error)
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// Transactor runs fn inside one database transaction carried by ctx
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// AccountRepository is the credential store
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByIDWithFranchise(ctx context.Context, id uint) (*models.Account, error)
	SetFranchiseIfMissing(ctx context.Context, accountID, franchiseID uint) error
	UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error
	SetResetOTP(ctx context.Context, accountID uint, otpHash *string, expiresAt *time.Time) error
	RecordOTPFailure(ctx context.Context, accountID uint, maxAttempts int) (bool, error)
	ToggleStatus(ctx context.Context, accountID uint, role string) (*models.Account, error)
}

// FranchiseRepository is the franchise registry
type FranchiseRepository interface {
	Repository[models.Franchise, models.FranchiseFilter]
	ByEmail(ctx context.Context, email string) (*models.Franchise, error)
	ByIDWithAccount(ctx context.Context, id uint) (*models.Franchise, error)
	ToggleStatus(ctx context.Context, id uint) (*models.Franchise, error)
	AddAgent(ctx context.Context, franchiseID, agentID uint) error
	RemoveAgent(ctx context.Context, franchiseID, agentID uint) error
	RemoveAgentEverywhere(ctx context.Context, agentID uint) error
}

type PropertyRepository interface {
	Repository[models.Property, models.PropertyFilter]
	ByIDWithRelations(ctx context.Context, id uint) (*models.Property, error)
}

type EnquiryRepository interface {
	Repository[models.Enquiry, models.EnquiryFilter]
	UpdateStatus(ctx context.Context, id uint, status string) (*models.Enquiry, error)
}

type RequirementRepository interface {
	Repository[models.Requirement, models.RequirementFilter]
}

type NotificationRepository interface {
	Repository[models.Notification, models.NotificationFilter]
	MarkRead(ctx context.Context, id uint) error
}

type DistrictRepository interface {
	Repository[models.District, models.DistrictFilter]
	ByName(ctx context.Context, name string) (*models.District, error)
}

type AreaRepository interface {
	Repository[models.Area, models.AreaFilter]
	ByIDWithDistrict(ctx context.Context, id uint) (*models.Area, error)
	ByNameAndDistrict(ctx context.Context, name string, districtID uint) (*models.Area, error)
}

// StreamRepository stores the single live stream row
type StreamRepository interface {
	Current(ctx context.Context) (*models.Stream, error)
	Upsert(ctx context.Context, youtubeURL string, isActive bool) (*models.Stream, error)
	DeleteCurrent(ctx context.Context) (bool, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
}
