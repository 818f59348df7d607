package http

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/common/pagination"
	"feedkeep/internal/handler/http/respond"
	"feedkeep/internal/repository"
	"feedkeep/internal/usecase/follow"
)

// PostingsHandler implements the mark_read/mark_unread/filter_postings
// endpoints, all scoped to a user's followed feeds.
type PostingsHandler struct {
	Follow *follow.Service
}

// MarkRead implements PATCH /v1.0/feeds/postings/read.
func (h *PostingsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req postingActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	ok, err := h.Follow.MarkRead(r.Context(), req.Username, req.Link)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		respond.Error(w, http.StatusBadRequest, errNotAllowedToReadPosting)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{})
}

// MarkUnread implements PATCH /v1.0/feeds/postings/unread.
func (h *PostingsHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	var req postingActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	ok, err := h.Follow.MarkUnread(r.Context(), req.Username, req.Link)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		respond.Error(w, http.StatusBadRequest, errUserOrPostingNotFound)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{})
}

// FilterPostings implements
// GET /v1.0/feeds/following/postings?username&feed_link?&is_read?&order_by&offset&limit.
func (h *PostingsHandler) FilterPostings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := q.Get("username")

	params, err := pagination.ParseOffsetLimit(r, pagination.DefaultConfig())
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	filter := repository.PostingFilter{
		FeedLink: q.Get("feed_link"),
		Order:    orderFromQuery(q.Get("order_by")),
		Offset:   params.Offset,
		Limit:    params.Limit,
	}
	if isReadStr := q.Get("is_read"); isReadStr != "" {
		isRead := isReadStr == "true"
		filter.IsRead = &isRead
	}

	postings, err := h.Follow.FilterPostings(r.Context(), username, filter)
	if err != nil {
		respond.SafeErrorV2(w, http.StatusBadRequest, followError(err))
		return
	}

	dtos := make([]postingDTO, 0, len(postings))
	for _, p := range postings {
		dtos = append(dtos, newPostingDTO(p))
	}
	respond.JSON(w, http.StatusOK, map[string][]postingDTO{"postings": dtos})
}

// orderFromQuery translates the order_by query value (last_update /
// -last_update) into an OrderDirection, defaulting to descending.
func orderFromQuery(orderBy string) repository.OrderDirection {
	if orderBy == "last_update" {
		return repository.OrderAsc
	}
	return repository.OrderDesc
}
