// controllers/service.go
package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"yotereparo-backend/models"
	"yotereparo-backend/services"
	"yotereparo-backend/utils"
)

// ServiceOperations is the service record engine used by ServiceController.
type ServiceOperations interface {
	CreateService(ctx context.Context, actorID uuid.UUID, sub *services.ServiceSubmission) (*models.ServiceRecord, error)
	UpdateService(ctx context.Context, actorID uuid.UUID, id uint, sub *services.ServiceSubmission) (*models.ServiceRecord, services.ChangeSet, error)
	EnableServiceByID(ctx context.Context, actorID uuid.UUID, id uint) (services.ChangeSet, error)
	DisableServiceByID(ctx context.Context, actorID uuid.UUID, id uint) (services.ChangeSet, error)
	DeleteServiceByID(ctx context.Context, actorID uuid.UUID, id uint) error
	GetServiceByID(ctx context.Context, id uint) (*models.ServiceRecord, error)
	ListServices(ctx context.Context, filter services.ServiceFilter) ([]models.ServiceRecord, error)
}

type ServiceController struct {
	services ServiceOperations
}

func NewServiceController(ops ServiceOperations) *ServiceController {
	return &ServiceController{services: ops}
}

// UpdateServiceResponse is returned by PUT /api/services/:id.
type UpdateServiceResponse struct {
	Service *models.ServiceRecord `json:"service"`
	Changes []string              `json:"changes"`
}

// CreateService creates a new service owned by the authenticated provider.
// usuarioPrestador defaults to the caller when omitted.
func (sc *ServiceController) CreateService(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	var input services.ServiceSubmission
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if strings.TrimSpace(input.Owner) == "" {
		input.Owner = actorID.String()
	}

	rec, err := sc.services.CreateService(c.Request.Context(), actorID, &input)
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/services/%d", rec.ID))
	c.JSON(http.StatusCreated, rec)
}

// GetServices lists services, optionally filtered by owner, type, payment
// method and status. An empty result answers 204.
func (sc *ServiceController) GetServices(c *gin.Context) {
	var filter services.ServiceFilter

	if owner := c.Query("owner"); owner != "" {
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid owner ID format")
			return
		}
		filter.OwnerID = &ownerID
	}
	filter.ServiceType = c.Query("type")
	filter.PaymentMethod = c.Query("paymentMethod")

	switch status := models.ServiceStatus(strings.ToUpper(c.Query("status"))); status {
	case "", models.StatusActive, models.StatusInactive:
		filter.Status = status
	default:
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	recs, err := sc.services.ListServices(c.Request.Context(), filter)
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}
	if len(recs) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, recs)
}

// GetService retrieves a specific service by ID
func (sc *ServiceController) GetService(c *gin.Context) {
	id, ok := serviceID(c)
	if !ok {
		return
	}

	rec, err := sc.services.GetServiceByID(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// UpdateService replaces the editable fields of a service. Optional fields
// left out of the body are cleared.
func (sc *ServiceController) UpdateService(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := serviceID(c)
	if !ok {
		return
	}

	var input services.ServiceSubmission
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	rec, changes, err := sc.services.UpdateService(c.Request.Context(), actorID, id, &input)
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, UpdateServiceResponse{Service: rec, Changes: changeList(changes)})
}

func (sc *ServiceController) EnableService(c *gin.Context) {
	sc.transition(c, sc.services.EnableServiceByID)
}

func (sc *ServiceController) DisableService(c *gin.Context) {
	sc.transition(c, sc.services.DisableServiceByID)
}

func (sc *ServiceController) transition(c *gin.Context, apply func(context.Context, uuid.UUID, uint) (services.ChangeSet, error)) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := serviceID(c)
	if !ok {
		return
	}

	changes, err := apply(c.Request.Context(), actorID, id)
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"changes": changeList(changes)})
}

// DeleteService permanently removes a service
func (sc *ServiceController) DeleteService(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := serviceID(c)
	if !ok {
		return
	}

	if err := sc.services.DeleteServiceByID(c.Request.Context(), actorID, id); err != nil {
		utils.RespondWithFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}

func actor(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.UserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found in context")
	}
	return id, ok
}

func serviceID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid service ID format")
		return 0, false
	}
	return uint(id), true
}

func changeList(changes services.ChangeSet) []string {
	if changes == nil {
		return []string{}
	}
	return changes
}
