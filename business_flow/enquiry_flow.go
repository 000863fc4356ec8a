package businessflow

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
	"github.com/xuri/excelize/v2"
)

// EnquiryFlow handles the public contact form and its admin side
type EnquiryFlow interface {
	CreateEnquiry(ctx context.Context, req *dto.CreateEnquiryRequest) (*models.Enquiry, error)
	ListEnquiries(ctx context.Context) ([]*models.Enquiry, error)
	UpdateEnquiryStatus(ctx context.Context, id uint, status string) (*models.Enquiry, error)
	DeleteEnquiry(ctx context.Context, id uint) error
	ExportEnquiries(ctx context.Context) (string, []byte, error)
}

// EnquiryFlowImpl implements EnquiryFlow
type EnquiryFlowImpl struct {
	enquiryRepo repository.EnquiryRepository
	sanitizer   services.Sanitizer
	captcha     services.CaptchaService
}

// NewEnquiryFlow creates the flow. A nil captcha service disables the challenge check.
func NewEnquiryFlow(enquiryRepo repository.EnquiryRepository, sanitizer services.Sanitizer, captcha services.CaptchaService) EnquiryFlow {
	return &EnquiryFlowImpl{
		enquiryRepo: enquiryRepo,
		sanitizer:   sanitizer,
		captcha:     captcha,
	}
}

// verifyCaptcha consumes the challenge carried by a public form
func verifyCaptcha(ctx context.Context, captcha services.CaptchaService, fields dto.CaptchaFields) error {
	if captcha == nil {
		return nil
	}
	if strings.TrimSpace(fields.CaptchaID) == "" || fields.CaptchaAngle == nil {
		return ErrCaptchaFailed
	}
	if !captcha.VerifyRotate(ctx, fields.CaptchaID, *fields.CaptchaAngle) {
		return ErrCaptchaFailed
	}
	return nil
}

func (ef *EnquiryFlowImpl) CreateEnquiry(ctx context.Context, req *dto.CreateEnquiryRequest) (*models.Enquiry, error) {
	if err := verifyCaptcha(ctx, ef.captcha, req.CaptchaFields); err != nil {
		return nil, NewBusinessError("CREATE_ENQUIRY_FAILED", "Failed to create enquiry", err)
	}

	enquiry := &models.Enquiry{
		AccountID: req.UserID,
		Name:      ef.sanitizer.Text(req.Name),
		Contact:   strings.TrimSpace(req.Contact),
		Email:     utils.NormalizeEmail(req.Email),
		City:      ef.sanitizer.Text(req.City),
		Message:   ef.sanitizer.Text(req.Message),
		Status:    models.EnquiryStatusNew,
	}

	if err := ef.enquiryRepo.Save(ctx, enquiry); err != nil {
		return nil, NewBusinessError("CREATE_ENQUIRY_FAILED", "Failed to create enquiry", err)
	}
	return enquiry, nil
}

func (ef *EnquiryFlowImpl) ListEnquiries(ctx context.Context) ([]*models.Enquiry, error) {
	enquiries, err := ef.enquiryRepo.ByFilter(ctx, models.EnquiryFilter{}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_ENQUIRIES_FAILED", "Failed to list enquiries", err)
	}
	return enquiries, nil
}

func (ef *EnquiryFlowImpl) UpdateEnquiryStatus(ctx context.Context, id uint, status string) (*models.Enquiry, error) {
	switch status {
	case models.EnquiryStatusNew, models.EnquiryStatusInProgress, models.EnquiryStatusClosed:
	default:
		return nil, NewBusinessError("UPDATE_ENQUIRY_FAILED", "Failed to update enquiry", ErrInvalidStatus)
	}

	enquiry, err := ef.enquiryRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, NewBusinessError("UPDATE_ENQUIRY_FAILED", "Failed to update enquiry", err)
	}
	if enquiry == nil {
		return nil, NewBusinessError("UPDATE_ENQUIRY_FAILED", "Failed to update enquiry", ErrEnquiryNotFound)
	}
	return enquiry, nil
}

func (ef *EnquiryFlowImpl) DeleteEnquiry(ctx context.Context, id uint) error {
	deleted, err := ef.enquiryRepo.Delete(ctx, id)
	if err != nil {
		return NewBusinessError("DELETE_ENQUIRY_FAILED", "Failed to delete enquiry", err)
	}
	if !deleted {
		return NewBusinessError("DELETE_ENQUIRY_FAILED", "Failed to delete enquiry", ErrEnquiryNotFound)
	}
	return nil
}

// ExportEnquiries renders every enquiry, newest first, into a single sheet workbook
func (ef *EnquiryFlowImpl) ExportEnquiries(ctx context.Context) (string, []byte, error) {
	enquiries, err := ef.enquiryRepo.ByFilter(ctx, models.EnquiryFilter{}, "created_at DESC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_ENQUIRIES_FAILED", "Failed to fetch enquiries", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	const sheet = "Enquiries"
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	header := []string{"id", "name", "contact", "email", "city", "message", "status", "user_id", "user_name", "created_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, e := range enquiries {
		userID, userName := "", ""
		if e.AccountID != nil {
			userID = strconv.FormatUint(uint64(*e.AccountID), 10)
		}
		if e.Account != nil {
			userName = e.Account.Name
		}
		record := []string{
			strconv.FormatUint(uint64(e.ID), 10),
			e.Name,
			e.Contact,
			e.Email,
			e.City,
			e.Message,
			e.Status,
			userID,
			userName,
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return "enquiries.xlsx", buf.Bytes(), nil
}
