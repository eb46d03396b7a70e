package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tabi-backend/internal/config"
	"tabi-backend/internal/httputil"
	"tabi-backend/internal/model"
	"tabi-backend/internal/service"
)

// BlockHandler serves the content-block routes nested under a day group.
type BlockHandler struct {
	blockService *service.BlockService
	config       *config.Config
}

func NewBlockHandler(blockService *service.BlockService, cfg *config.Config) *BlockHandler {
	return &BlockHandler{
		blockService: blockService,
		config:       cfg,
	}
}

// List returns the day group's blocks in order
// GET /itineraries/{itineraryID}/days/{dayID}/blocks
func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request) {
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

	viewer := viewerFromContext(r.Context(), h.config)
	blocks, err := h.blockService.List(r.Context(), itineraryID, dayID, viewer)
	if err != nil {
		writeBlockError(w, err, "Failed to list blocks")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, blocks)
}

// Create appends a block to the day group
// POST /itineraries/{itineraryID}/days/{dayID}/blocks
func (h *BlockHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req model.CreateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		httputil.WriteBadRequest(w, "Content is required")
		return
	}
	if req.Order < 0 {
		httputil.WriteBadRequest(w, "Order must be positive")
		return
	}

	block, err := h.blockService.Create(r.Context(), itineraryID, dayID, caller, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidBlockType):
			httputil.WriteBadRequest(w, "Type must be text, image, or map")
		case errors.Is(err, model.ErrOrderConflict):
			httputil.WriteConflict(w, "A block already occupies that position")
		default:
			writeBlockError(w, err, "Failed to create block")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, block)
}

// Delete removes a block
// DELETE /itineraries/{itineraryID}/days/{dayID}/blocks/{blockID}
func (h *BlockHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	blockID, ok := pathID(r, "blockID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid block ID")
		return
	}

	if err := h.blockService.Delete(r.Context(), itineraryID, dayID, blockID, caller); err != nil {
		writeBlockError(w, err, "Failed to delete block")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeBlockError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrItineraryNotFound):
		httputil.WriteNotFound(w, "Itinerary not found")
	case errors.Is(err, model.ErrDayGroupNotFound):
		httputil.WriteNotFound(w, "Day group not found")
	case errors.Is(err, model.ErrBlockNotFound):
		httputil.WriteNotFound(w, "Block not found")
	default:
		httputil.WriteInternalError(w, fallback)
	}
}
