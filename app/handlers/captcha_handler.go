package handlers

import (
	"log"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/gofiber/fiber/v3"
)

// CaptchaHandler issues rotate captcha challenges for the public forms
type CaptchaHandler struct {
	baseHandler
	captcha services.CaptchaService
}

// NewCaptchaHandler creates a new captcha handler
func NewCaptchaHandler(captcha services.CaptchaService) *CaptchaHandler {
	return &CaptchaHandler{
		baseHandler: newBaseHandler(),
		captcha:     captcha,
	}
}

// NewChallenge returns a rotate challenge
// @Summary New captcha
// @Tags Captcha
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CaptchaChallengeResponse} "Challenge"
// @Failure 503 {object} dto.ErrorResponse "Captcha disabled"
// @Router /api/v1/captcha/new [get]
func (h *CaptchaHandler) NewChallenge(c fiber.Ctx) error {
	if h.captcha == nil {
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Captcha is disabled", "CAPTCHA_DISABLED", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/captcha/new")
	defer cancel()

	challenge, err := h.captcha.GenerateRotate(ctx)
	if err != nil {
		log.Println("Captcha generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Internal Server Error", "CAPTCHA_FAILED", nil)
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return h.SuccessResponse(c, fiber.StatusOK, "Captcha generated", dto.CaptchaChallengeResponse{
		ID:          challenge.ID,
		MasterImage: challenge.MasterImageBase64,
		ThumbImage:  challenge.ThumbImageBase64,
	})
}
