package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"feedkeep/internal/common/pagination"
	"feedkeep/internal/domain/entity"
	"feedkeep/internal/handler/http/respond"
	"feedkeep/internal/repository"
)

// usersListDefaultLimit is list_users' own pagination default, distinct
// from the general default used by the other listing endpoint.
const usersListDefaultLimit = 100

// UsersHandler implements GET/POST /v1.0/users/.
type UsersHandler struct {
	Store repository.Store
}

func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	cfg := pagination.Config{DefaultLimit: usersListDefaultLimit, MaxLimit: usersListDefaultLimit}
	params, err := pagination.ParseOffsetLimit(r, cfg)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	users, err := h.Store.ListUsers(r.Context(), params.Offset, params.Limit)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	dtos := make([]userDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, newUserDTO(u))
	}
	respond.JSON(w, http.StatusOK, dtos)
}

func (h *UsersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	if err := entity.ValidateUsername(req.Username); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	if _, err := h.Store.CreateUser(r.Context(), req.Username); err != nil {
		if errors.Is(err, entity.ErrAlreadyExists) {
			respond.Error(w, http.StatusBadRequest, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]string{})
}
