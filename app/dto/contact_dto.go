package dto

// CreateEnquiryRequest is the public enquiry form
type CreateEnquiryRequest struct {
	CaptchaFields
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Contact string `json:"contact" validate:"required,min=5,max=20"`
	Email   string `json:"email" validate:"required,email,max=255"`
	City    string `json:"city" validate:"required,max=100"`
	Message string `json:"message" validate:"omitempty,max=5000"`
	UserID  *uint  `json:"userId" validate:"omitempty,gt=0"`
}

type UpdateEnquiryStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new in-progress closed"`
}

// CreateRequirementRequest is the public requirement form
type CreateRequirementRequest struct {
	CaptchaFields
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Phone       string `json:"phone" validate:"required,min=5,max=20"`
	Requirement string `json:"requirement" validate:"required,max=5000"`
}

// CreateNotificationRequest addresses one account by id or every account with "all"
type CreateNotificationRequest struct {
	Recipient string `json:"recipient" validate:"required,max=20"`
	Message   string `json:"message" validate:"required,max=2000"`
}
