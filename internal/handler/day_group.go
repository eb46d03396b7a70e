package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"tabi-backend/internal/config"
	"tabi-backend/internal/httputil"
	"tabi-backend/internal/model"
	"tabi-backend/internal/service"
)

// DayGroupHandler serves the nested day-group routes of an itinerary.
type DayGroupHandler struct {
	dayGroupService *service.DayGroupService
	config          *config.Config
}

func NewDayGroupHandler(dayGroupService *service.DayGroupService, cfg *config.Config) *DayGroupHandler {
	return &DayGroupHandler{
		dayGroupService: dayGroupService,
		config:          cfg,
	}
}

// List returns the itinerary's day groups in order
// GET /itineraries/{itineraryID}/days
func (h *DayGroupHandler) List(w http.ResponseWriter, r *http.Request) {
	itineraryID, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}

	viewer := viewerFromContext(r.Context(), h.config)
	groups, err := h.dayGroupService.List(r.Context(), itineraryID, viewer)
	if err != nil {
		if errors.Is(err, model.ErrItineraryNotFound) {
			httputil.WriteNotFound(w, "Itinerary not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to list day groups")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, groups)
}

// Create appends a day group at the end of the itinerary
// POST /itineraries/{itineraryID}/days
func (h *DayGroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context(), h.config)
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}
	itineraryID, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}

	var req model.CreateDayGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	group, err := h.dayGroupService.Create(r.Context(), itineraryID, caller, &req)
	if err != nil {
		if errors.Is(err, model.ErrItineraryNotFound) {
			httputil.WriteNotFound(w, "Itinerary not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to create day group")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, group)
}

// Update mutates a day group's date or title
// PATCH /itineraries/{itineraryID}/days/{dayID}
func (h *DayGroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context(), h.config)
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}
	itineraryID, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}
	dayID, ok := pathID(r, "dayID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid day group ID")
		return
	}

	var req model.UpdateDayGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	group, err := h.dayGroupService.Update(r.Context(), itineraryID, dayID, caller, &req)
	if err != nil {
		writeDayGroupError(w, err, "Failed to update day group")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, group)
}

// Delete removes a day group and its blocks
// DELETE /itineraries/{itineraryID}/days/{dayID}
func (h *DayGroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context(), h.config)
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}
	itineraryID, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}
	dayID, ok := pathID(r, "dayID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid day group ID")
		return
	}

	if err := h.dayGroupService.Delete(r.Context(), itineraryID, dayID, caller); err != nil {
		writeDayGroupError(w, err, "Failed to delete day group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reorder replaces the itinerary's full day sequence. The body is either a
// bare JSON array of day-group IDs or {"ids": [...]}.
// PATCH /itineraries/{itineraryID}/days/reorder
func (h *DayGroupHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context(), h.config)
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}
	itineraryID, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}

	var req model.ReorderDayGroupsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		httputil.WriteBadRequest(w, "IDs are required")
		return
	}

	groups, err := h.dayGroupService.Reorder(r.Context(), itineraryID, caller, req.IDs)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrItineraryNotFound):
			httputil.WriteNotFound(w, "Itinerary not found")
		case errors.Is(err, model.ErrIDSetMismatch):
			httputil.WriteBadRequest(w, "IDs must match the itinerary's day groups exactly")
		case errors.Is(err, model.ErrOrderConflict):
			httputil.WriteConflict(w, "Ordering conflict, please retry")
		default:
			httputil.WriteInternalError(w, "Failed to reorder day groups")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, groups)
}

func writeDayGroupError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrItineraryNotFound):
		httputil.WriteNotFound(w, "Itinerary not found")
	case errors.Is(err, model.ErrDayGroupNotFound):
		httputil.WriteNotFound(w, "Day group not found")
	default:
		httputil.WriteInternalError(w, fallback)
	}
}
