package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yotereparo-backend/services"
	"yotereparo-backend/utils"
)

type UpdateProfileInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// UpdateProfile changes the display name and phone of the caller.
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	user, err := ac.accounts.UpdateProfile(c.Request.Context(), userID, services.ProfileUpdate{
		Name:  input.Name,
		Phone: input.Phone,
	})
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}
