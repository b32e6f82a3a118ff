package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"yotereparo-backend/models"
	"yotereparo-backend/services"
	"yotereparo-backend/utils"
)

type AccountOperations interface {
	Register(ctx context.Context, reg services.Registration) (*services.Session, error)
	Login(ctx context.Context, identifier, password string) (*services.Session, error)
	Me(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update services.ProfileUpdate) (*models.User, error)
}

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // 'provider' or 'client', defaults to client
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be username or email
	Password   string `json:"password" binding:"required"`
}

type AuthController struct {
	accounts     AccountOperations
	secureCookie bool
}

func NewAuthController(accounts AccountOperations, secureCookie bool) *AuthController {
	return &AuthController{accounts: accounts, secureCookie: secureCookie}
}

// controllers/auth.go
func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput

	// Bind and validate input
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	session, err := ac.accounts.Register(c.Request.Context(), services.Registration{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
		Phone:    input.Phone,
		Role:     input.Role,
	})
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}

	ac.setTokenCookie(c, session)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   session.Token,
		"user":    session.User,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	session, err := ac.accounts.Login(c.Request.Context(), input.Identifier, input.Password)
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}

	ac.setTokenCookie(c, session)
	c.JSON(http.StatusOK, gin.H{
		"token": session.Token,
		"user":  session.User,
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}

	user, err := ac.accounts.Me(c.Request.Context(), userID)
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (ac *AuthController) setTokenCookie(c *gin.Context, session *services.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetCookie("token", session.Token, maxAge, "/", "", ac.secureCookie, true)
}
