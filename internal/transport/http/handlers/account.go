package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

// AccountHandler exposes profile and password management endpoints.
type AccountHandler struct {
	accounts *usecase.AccountService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(accounts *usecase.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterRoutes binds account routes behind the provided auth middleware.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	r.GET("/profile/:id", authMiddleware, h.getProfile)
	r.PUT("/profile/:id", authMiddleware, h.updateProfile)
	r.POST("/change-password", authMiddleware, h.changePassword)
}

func (h *AccountHandler) getProfile(c *gin.Context) {
	requesterID, ok := middleware.GetAuthenticatedSubjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	accountID := strings.TrimSpace(c.Param("id"))

	account, err := h.accounts.GetProfile(c.Request.Context(), requesterID, accountID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, newAccountPayload(account))
}

func (h *AccountHandler) updateProfile(c *gin.Context) {
	requesterID, ok := middleware.GetAuthenticatedSubjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	accountID := strings.TrimSpace(c.Param("id"))

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	result, err := h.accounts.UpdateProfile(c.Request.Context(), requesterID, accountID, domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrEmptyUpdate, Status: http.StatusBadRequest, Message: "no fields to update"},
			{Err: usecase.ErrIdentityTaken, Status: http.StatusConflict, Message: "username or email already exists"},
		}, http.StatusInternalServerError, "failed to update profile")
		return
	}

	resp := ProfileUpdateResponse{Account: newAccountPayload(result.Account)}
	if result.NewTokens != nil {
		tokens := newTokenPayload(*result.NewTokens)
		resp.Tokens = &tokens
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) changePassword(c *gin.Context) {
	subjectID, ok := middleware.GetAuthenticatedSubjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "current_password and new_password are required"))
		return
	}

	err := h.accounts.ChangePassword(c.Request.Context(), subjectID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrCurrentPasswordInvalid, Status: http.StatusUnauthorized, Message: "current password is incorrect"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to change password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed; all sessions revoked"})
}
