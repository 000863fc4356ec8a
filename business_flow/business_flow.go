package businessflow

import (
	"context"
	"encoding/json"
	"log"

	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// auditRecorder writes audit rows; failures are logged and never fail the caller
type auditRecorder struct {
	repo repository.AuditLogRepository
}

func (a auditRecorder) record(ctx context.Context, accountID *uint, action, description string, success bool, errMsg *string, metadata *ClientMetadata) {
	if a.repo == nil {
		return
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AccountID:    accountID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		audit.RequestID = &requestID
	} else if metadata != nil && metadata.RequestID != "" {
		audit.RequestID = utils.ToPtr(metadata.RequestID)
	}

	if metadata != nil && len(metadata.Additional) > 0 {
		if raw, err := json.Marshal(metadata.Additional); err == nil {
			audit.Metadata = raw
		}
	}

	if err := a.repo.Save(ctx, audit); err != nil {
		log.Printf("audit log write failed for %s: %v", action, err)
	}
}

func accountIDPtr(account *models.Account) *uint {
	if account == nil {
		return nil
	}
	return utils.ToPtr(account.ID)
}
