package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/usecase"
)

// PasswordResetHandler exposes the self-service password reset flow.
type PasswordResetHandler struct {
	resets *usecase.PasswordResetService
	isDev  bool
}

// NewPasswordResetHandler constructs PasswordResetHandler. In development mode
// the raw reset token is echoed back instead of being delivered out of band.
func NewPasswordResetHandler(resets *usecase.PasswordResetService, isDev bool) *PasswordResetHandler {
	return &PasswordResetHandler{
		resets: resets,
		isDev:  isDev,
	}
}

// RegisterRoutes binds password reset routes. The optional middleware chain
// guards only the request endpoint; confirm stays unthrottled.
func (h *PasswordResetHandler) RegisterRoutes(r *gin.RouterGroup, requestMiddlewares ...gin.HandlerFunc) {
	if len(requestMiddlewares) > 0 {
		chain := append([]gin.HandlerFunc{}, requestMiddlewares...)
		chain = append(chain, h.requestReset)
		r.POST("/request", chain...)
	} else {
		r.POST("/request", h.requestReset)
	}

	r.POST("/confirm", h.confirmReset)
}

func (h *PasswordResetHandler) requestReset(c *gin.Context) {
	var req PasswordResetRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "a valid email is required"))
		return
	}

	var ip *string
	if clientIP := strings.TrimSpace(c.ClientIP()); clientIP != "" {
		ip = &clientIP
	}

	raw, expiresAt, err := h.resets.RequestReset(c.Request.Context(), req.Email, ip)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to process reset request"))
		return
	}

	// The response never reveals whether the email is registered.
	resp := PasswordResetRequestResponse{
		Message: "if the email is registered, a reset link has been sent",
	}

	if h.isDev && raw != "" {
		expires := expiresAt.UTC()
		resp.ExpiresAt = &expires
		resp.DevToken = &raw
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *PasswordResetHandler) confirmReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token and new_password are required"))
		return
	}

	err := h.resets.ConfirmReset(c.Request.Context(), strings.TrimSpace(req.Token), req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetTokenInvalid, Status: http.StatusBadRequest, Message: "invalid or expired reset token"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password has been reset; all sessions revoked"})
}
