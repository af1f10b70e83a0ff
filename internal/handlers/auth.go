package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/services"
	"github.com/ecoverse/backend/internal/types"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email         string `json:"email"`
		Name          string `json:"name"`
		Password      string `json:"password"`
		Location      string `json:"location"`
		HouseholdSize int    `json:"household_size"`
		Lifestyle     string `json:"lifestyle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation(fmt.Errorf("invalid request body")))
		return
	}
	user := types.User{
		Email:         req.Email,
		Name:          req.Name,
		Password:      req.Password,
		Location:      req.Location,
		HouseholdSize: req.HouseholdSize,
		Lifestyle:     types.Lifestyle(req.Lifestyle),
	}
	if err := ah.authService.RegisterUser(c.Request.Context(), &user); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation(fmt.Errorf("invalid request body")))
		return
	}
	accessToken, refreshToken, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	expiresIn := int(ah.authService.GetAccessTTL().Seconds())
	RespondOK(c, gin.H{"access_token": accessToken, "refresh_token": refreshToken, "expires_in": expiresIn})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	accessToken, refreshToken, err := ah.authService.RefreshUser(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	expiresIn := int(ah.authService.GetAccessTTL().Seconds())
	RespondOK(c, gin.H{"access_token": accessToken, "refresh_token": refreshToken, "expires_in": expiresIn})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
