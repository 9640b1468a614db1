package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"subvault/auth-service/internal/app/auth/entity"
	"subvault/auth-service/internal/app/auth/service"
	"subvault/pkg/logger"
	"subvault/pkg/metrics"
)

type AuthHandler struct {
	authService service.AuthServiceInterface
	validator   *validator.Validate
}

func NewAuthHandler(authService service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
	}
}

// Register обрабатывает POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			respondError(c, http.StatusConflict, "User with this email already exists")
			return
		}
		logger.Error().Err(err).Msg("Failed to register user")
		respondError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	metrics.AuthRegistrations.Inc()
	c.JSON(http.StatusCreated, entity.DataResponse{Success: true, Data: resp})
}

// Login обрабатывает POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			metrics.AuthLogins.WithLabelValues("failed").Inc()
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		logger.Error().Err(err).Msg("Failed to login user")
		respondError(c, http.StatusInternalServerError, "Failed to login")
		return
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: resp})
}

// RefreshToken обрабатывает POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req entity.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	tokens, err := h.authService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			respondError(c, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		logger.Error().Err(err).Msg("Failed to refresh tokens")
		respondError(c, http.StatusInternalServerError, "Failed to refresh tokens")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: tokens})
}

// Me обрабатывает GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		logger.Error().Err(err).Msg("Failed to get current user")
		respondError(c, http.StatusInternalServerError, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: user})
}

// Logout обрабатывает POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	accessToken := c.GetString("access_token")

	if err := h.authService.Logout(c.Request.Context(), userID, accessToken); err != nil {
		logger.Error().Err(err).Msg("Failed to logout user")
		respondError(c, http.StatusInternalServerError, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetUserStats обрабатывает GET /internal/stats/users.
// Каталог читает ответ как есть, без envelope.
func (h *AuthHandler) GetUserStats(c *gin.Context) {
	stats, err := h.authService.GetUserStats(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get user stats")
		respondError(c, http.StatusInternalServerError, "Failed to get user stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{Success: false, Error: message})
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return "Validation failed on field '" + fe.Field() + "' (" + fe.Tag() + ")"
	}
	return "Validation failed"
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
