package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// StaffHandler holds the staff directory and the shift services.
type StaffHandler struct {
	staffService services.StaffService
	shiftService services.ShiftService
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(staff services.StaffService, shifts services.ShiftService) *StaffHandler {
	return &StaffHandler{staffService: staff, shiftService: shifts}
}

// GetStaffMembers lists staff; ?active=true limits it to active members.
func (h *StaffHandler) GetStaffMembers(c *gin.Context) {
	members, err := h.staffService.ListStaffMembers(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondServiceError(c, err, "GetStaffMembers: Error from staffService.ListStaffMembers", "Failed to fetch staff members.")
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *StaffHandler) GetStaffMemberByID(c *gin.Context) {
	staffID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	member, err := h.staffService.GetStaffMember(c.Request.Context(), staffID)
	if err != nil {
		respondServiceError(c, err, "GetStaffMemberByID: Error from staffService.GetStaffMember", "Failed to fetch staff member.")
		return
	}
	c.JSON(http.StatusOK, member)
}

// --- Shift Handlers ---

func (h *StaffHandler) OpenShift(c *gin.Context) {
	var req services.OpenShiftRequest
	if !bindJSON(c, "OpenShift", &req) {
		return
	}
	shift, err := h.shiftService.OpenShift(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "OpenShift: Error from shiftService.OpenShift", "Failed to open shift.")
		return
	}
	c.JSON(http.StatusCreated, shift)
}

func (h *StaffHandler) GetShifts(c *gin.Context) {
	var filters models.ShiftFilters
	if !optionalInt64Query(c, "staff_id", &filters.StaffID) {
		return
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	shifts, err := h.shiftService.ListShifts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetShifts: Error from shiftService.ListShifts", "Failed to fetch shifts.")
		return
	}
	c.JSON(http.StatusOK, shifts)
}

func (h *StaffHandler) GetShiftByID(c *gin.Context) {
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	shift, err := h.shiftService.GetShift(c.Request.Context(), shiftID)
	if err != nil {
		respondServiceError(c, err, "GetShiftByID: Error from shiftService.GetShift", "Failed to fetch shift.")
		return
	}
	c.JSON(http.StatusOK, shift)
}

// PreviewShift reports the running reconciliation of a shift without closing it.
func (h *StaffHandler) PreviewShift(c *gin.Context) {
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.shiftService.PreviewShift(c.Request.Context(), shiftID)
	if err != nil {
		respondServiceError(c, err, "PreviewShift: Error from shiftService.PreviewShift", "Failed to preview shift.")
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *StaffHandler) CloseShift(c *gin.Context) {
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CloseShiftRequest
	if !bindJSON(c, "CloseShift", &req) {
		return
	}
	shift, err := h.shiftService.CloseShift(c.Request.Context(), shiftID, req)
	if err != nil {
		respondServiceError(c, err, "CloseShift: Error from shiftService.CloseShift", "Failed to close shift.")
		return
	}
	c.JSON(http.StatusOK, shift)
}

func (h *StaffHandler) DeleteShift(c *gin.Context) {
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.shiftService.DeleteShift(c.Request.Context(), shiftID); err != nil {
		respondServiceError(c, err, "DeleteShift: Error from shiftService.DeleteShift", "Failed to delete shift.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted successfully"})
}
