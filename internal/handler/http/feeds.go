package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/handler/http/respond"
	"feedkeep/internal/usecase/follow"
)

// FeedsHandler implements the follow/unfollow/force-update feed endpoints.
type FeedsHandler struct {
	Follow *follow.Service
}

// Follow implements POST /v1.0/feeds/follow.
func (h *FeedsHandler) Follow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := entity.ValidateLink(req.Link); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := entity.ValidateURL(req.Link); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	feed, err := h.Follow.Follow(r.Context(), req.Username, req.Link)
	if err != nil {
		respond.SafeErrorV2(w, http.StatusBadRequest, followError(err))
		return
	}

	respond.JSON(w, http.StatusOK, map[string]feedDTO{"feed": newFeedDTO(feed)})
}

// Unfollow implements DELETE /v1.0/feeds/unfollow.
func (h *FeedsHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	ok, err := h.Follow.Unfollow(r.Context(), req.Username, req.Link)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		respond.Error(w, http.StatusBadRequest, errors.New("feed or user not found"))
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{})
}

// ForceUpdate implements POST /v1.0/feeds/feed/force-update.
func (h *FeedsHandler) ForceUpdate(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := entity.ValidateLink(req.Link); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := entity.ValidateURL(req.Link); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	ok, err := h.Follow.ForceUpdate(r.Context(), req.Username, req.Link)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		respond.Error(w, http.StatusBadRequest, errors.New("Unfortunately update was not successful"))
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{})
}

// followError converts a follow.Service sentinel error into an AppError
// carrying the exact user-facing message for that failure, so it bypasses
// SafeError's substring heuristic and reaches the client unchanged.
func followError(err error) error {
	switch {
	case errors.Is(err, follow.ErrUserNotFound):
		return respond.NewAppError(http.StatusBadRequest, "feed or user not found", err)
	case errors.Is(err, follow.ErrIngestFailed):
		return respond.NewAppError(http.StatusBadRequest, "Unfortunately update was not successful", err)
	default:
		return err
	}
}
