package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fleet-service/internal/http/middleware"
	"fleet-service/internal/model"
	"fleet-service/internal/service"
)

type Handler struct {
	vehicleService      *service.VehicleService
	driverService       *service.DriverService
	assignmentService   *service.AssignmentService
	availabilityService *service.AvailabilityService
	log                 zerolog.Logger
}

func NewHandler(
	vehicleService *service.VehicleService,
	driverService *service.DriverService,
	assignmentService *service.AssignmentService,
	availabilityService *service.AvailabilityService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		vehicleService:      vehicleService,
		driverService:       driverService,
		assignmentService:   assignmentService,
		availabilityService: availabilityService,
		log:                 log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := r.Group("/")
	protected.Use(authMiddleware)

	vehicles := protected.Group("/vehicles")
	{
		vehicles.GET("", h.listVehicles)
		vehicles.POST("", h.registerVehicle)
		vehicles.GET("/available", h.availableVehicles)
		vehicles.GET("/:id", h.getVehicle)
		vehicles.PUT("/:id/status", h.updateVehicleStatus)
		vehicles.POST("/:id/assignments", h.createVehicleAssignment)
		vehicles.GET("/:id/assignments", h.vehicleAssignmentHistory)
		vehicles.PUT("/:id/release", h.releaseVehicle)
		vehicles.PUT("/:id/assign-driver", h.assignDriver)
		vehicles.PUT("/:id/unassign-driver", h.unassignDriver)
	}

	drivers := protected.Group("/drivers")
	{
		drivers.GET("", h.listDrivers)
		drivers.POST("", h.registerDriver)
		drivers.GET("/available", h.availableDrivers)
		drivers.GET("/:id", h.getDriver)
		drivers.PUT("/:id/status", h.updateDriverStatus)
		drivers.POST("/:id/assignments", h.createDriverAssignment)
		drivers.GET("/:id/assignments", h.driverAssignmentHistory)
		drivers.PUT("/:id/release", h.releaseDriver)
	}

	assignments := protected.Group("/assignments")
	{
		assignments.GET("/:id", h.getAssignment)
		assignments.PUT("/:id/complete", h.completeAssignment)
	}
}

// Vehicle handlers

func (h *Handler) listVehicles(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	page, pageSize := parsePagination(c)
	input := service.ListVehiclesInput{
		Status:      strings.TrimSpace(c.Query("status")),
		VehicleType: strings.TrimSpace(c.Query("type")),
		AgencyID:    strings.TrimSpace(c.Query("agency_id")),
		Available:   parseBoolQuery(c, "available"),
		Search:      strings.TrimSpace(c.Query("search")),
		Page:        page,
		PageSize:    pageSize,
	}

	vehicles, total, err := h.vehicleService.List(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(vehicles, page, pageSize, total))
}

func (h *Handler) registerVehicle(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		AgencyID         string `json:"agency_id"`
		PlateNumber      string `json:"plate_number" binding:"required"`
		Brand            string `json:"brand"`
		Model            string `json:"model"`
		VehicleType      string `json:"vehicle_type" binding:"required"`
		Capacity         int    `json:"capacity" binding:"required"`
		InsuranceExpiry  string `json:"insurance_expiry"`
		InspectionExpiry string `json:"inspection_expiry"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.vehicleService.Register(c.Request.Context(), principal, service.RegisterVehicleInput{
		AgencyID:         req.AgencyID,
		PlateNumber:      req.PlateNumber,
		Brand:            req.Brand,
		Model:            req.Model,
		VehicleType:      req.VehicleType,
		Capacity:         req.Capacity,
		InsuranceExpiry:  req.InsuranceExpiry,
		InspectionExpiry: req.InspectionExpiry,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(vehicle))
}

func (h *Handler) availableVehicles(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	input := service.AvailableVehiclesInput{
		Date:        strings.TrimSpace(c.Query("date")),
		VehicleType: strings.TrimSpace(c.Query("type")),
		MinCapacity: parseIntQuery(c, "min_capacity"),
	}

	vehicles, err := h.availabilityService.AvailableVehicles(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicles))
}

func (h *Handler) getVehicle(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	vehicle, err := h.vehicleService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) updateVehicleStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.vehicleService.UpdateStatus(c.Request.Context(), principal, id, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) createVehicleAssignment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	vehicleID := strings.TrimSpace(c.Param("id"))
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	var req struct {
		TourID     string `json:"tour_id" binding:"required"`
		TourCode   string `json:"tour_code"`
		Date       string `json:"date" binding:"required"`
		DriverID   string `json:"driver_id"`
		Passengers *int   `json:"passengers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	assignment, err := h.assignmentService.ClaimVehicle(c.Request.Context(), principal, service.ClaimVehicleInput{
		VehicleID:  vehicleID,
		TourID:     req.TourID,
		TourCode:   req.TourCode,
		Date:       req.Date,
		DriverID:   req.DriverID,
		Passengers: req.Passengers,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(assignment))
}

func (h *Handler) vehicleAssignmentHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	assignments, err := h.assignmentService.History(c.Request.Context(), principal, model.ResourceTypeVehicle, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignments))
}

func (h *Handler) releaseVehicle(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	assignment, err := h.assignmentService.ReleaseByResource(c.Request.Context(), principal, model.ResourceTypeVehicle, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignment))
}

func (h *Handler) assignDriver(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	vehicleID := strings.TrimSpace(c.Param("id"))
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	var req struct {
		DriverID string `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.vehicleService.AssignDriver(c.Request.Context(), principal, vehicleID, req.DriverID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"message": "driver assigned"}))
}

func (h *Handler) unassignDriver(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	vehicleID := strings.TrimSpace(c.Param("id"))
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	if err := h.vehicleService.UnassignDriver(c.Request.Context(), principal, vehicleID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"message": "driver unassigned"}))
}

// Driver handlers

func (h *Handler) listDrivers(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	page, pageSize := parsePagination(c)
	input := service.ListDriversInput{
		Status:          strings.TrimSpace(c.Query("status")),
		LicenseType:     strings.TrimSpace(c.Query("license_type")),
		AgencyID:        strings.TrimSpace(c.Query("agency_id")),
		Available:       parseBoolQuery(c, "available"),
		VehicleAssigned: parseBoolQuery(c, "vehicle_assigned"),
		Search:          strings.TrimSpace(c.Query("search")),
		Page:            page,
		PageSize:        pageSize,
	}

	drivers, total, err := h.driverService.List(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(drivers, page, pageSize, total))
}

func (h *Handler) registerDriver(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		AgencyID        string `json:"agency_id"`
		FirstName       string `json:"first_name" binding:"required"`
		LastName        string `json:"last_name" binding:"required"`
		Phone           string `json:"phone"`
		LicenseNumber   string `json:"license_number" binding:"required"`
		LicenseCategory string `json:"license_category" binding:"required"`
		LicenseExpiry   string `json:"license_expiry"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	driver, err := h.driverService.Register(c.Request.Context(), principal, service.RegisterDriverInput{
		AgencyID:        req.AgencyID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		LicenseNumber:   req.LicenseNumber,
		LicenseCategory: req.LicenseCategory,
		LicenseExpiry:   req.LicenseExpiry,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(driver))
}

func (h *Handler) availableDrivers(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	input := service.AvailableDriversInput{
		Date:        strings.TrimSpace(c.Query("date")),
		VehicleType: strings.TrimSpace(c.Query("vehicle_type")),
	}

	drivers, err := h.availabilityService.AvailableDrivers(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(drivers))
}

func (h *Handler) getDriver(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return
	}

	driver, err := h.driverService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(driver))
}

func (h *Handler) updateDriverStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	driver, err := h.driverService.UpdateStatus(c.Request.Context(), principal, id, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(driver))
}

func (h *Handler) createDriverAssignment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	driverID := strings.TrimSpace(c.Param("id"))
	if driverID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return
	}

	var req struct {
		TourID    string `json:"tour_id" binding:"required"`
		TourCode  string `json:"tour_code"`
		Date      string `json:"date" binding:"required"`
		VehicleID string `json:"vehicle_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	assignment, err := h.assignmentService.ClaimDriver(c.Request.Context(), principal, service.ClaimDriverInput{
		DriverID:  driverID,
		TourID:    req.TourID,
		TourCode:  req.TourCode,
		Date:      req.Date,
		VehicleID: req.VehicleID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(assignment))
}

func (h *Handler) driverAssignmentHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return
	}

	assignments, err := h.assignmentService.History(c.Request.Context(), principal, model.ResourceTypeDriver, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignments))
}

func (h *Handler) releaseDriver(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return
	}

	assignment, err := h.assignmentService.ReleaseByResource(c.Request.Context(), principal, model.ResourceTypeDriver, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignment))
}

// Assignment handlers

func (h *Handler) getAssignment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid assignment id"))
		return
	}

	assignment, err := h.assignmentService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignment))
}

func (h *Handler) completeAssignment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid assignment id"))
		return
	}

	assignment, err := h.assignmentService.Release(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignment))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrCapacityExceeded):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDuplicateKey),
		errors.Is(err, service.ErrDoubleBooking),
		errors.Is(err, service.ErrResourceInactive),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"success": true,
		"data":    data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"success": false,
		"error":   message,
	}
}

func listResponse(items interface{}, page, pageSize int, total int64) gin.H {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return gin.H{
		"success": true,
		"data":    items,
		"pagination": gin.H{
			"page":       page,
			"pageSize":   pageSize,
			"totalItems": total,
			"totalPages": totalPages,
		},
	}
}

func parsePagination(c *gin.Context) (int, int) {
	page := 1
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	pageSize := 20
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			pageSize = parsed
		}
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func parseBoolQuery(c *gin.Context, name string) *bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

func parseIntQuery(c *gin.Context, name string) *int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}
