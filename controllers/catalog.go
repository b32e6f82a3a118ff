package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"yotereparo-backend/models"
	"yotereparo-backend/utils"
)

type CatalogOperations interface {
	ListServiceTypes(ctx context.Context) ([]models.ServiceType, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}

// CatalogController serves the reference data a service submission may name.
type CatalogController struct {
	catalog CatalogOperations
}

func NewCatalogController(catalog CatalogOperations) *CatalogController {
	return &CatalogController{catalog: catalog}
}

func (cc *CatalogController) GetServiceTypes(c *gin.Context) {
	types, err := cc.catalog.ListServiceTypes(c.Request.Context())
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (cc *CatalogController) GetPaymentMethods(c *gin.Context) {
	methods, err := cc.catalog.ListPaymentMethods(c.Request.Context())
	if err != nil {
		utils.RespondWithFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, methods)
}
