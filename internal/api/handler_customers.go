package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldservice-backend/internal/model"
)

type customerRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	Phone   string `json:"phone"`
}

// PostCustomer handles POST /api/customers. The address is geocoded
// best-effort; a provider failure leaves the coordinate empty and the
// customer simply does not contribute to best-fit analysis until it is
// geocoded later.
func (h *Handler) PostCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := model.Customer{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	}

	if coord, err := h.geocoder.Geocode(c.Request.Context(), req.Address); err == nil {
		customer.Latitude = &coord.Lat
		customer.Longitude = &coord.Lon
	}

	if err := h.store.DB().WithContext(c.Request.Context()).Create(&customer).Error; err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomers handles GET /api/customers.
func (h *Handler) GetCustomers(c *gin.Context) {
	var customers []model.Customer
	if err := h.store.DB().WithContext(c.Request.Context()).Find(&customers).Error; err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}
