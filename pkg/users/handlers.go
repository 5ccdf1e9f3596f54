// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/storage"
	"github.com/chapterly/catalog-service/internal/types"
	"github.com/chapterly/catalog-service/pkg/authentication"
)

type API struct {
	service  ServiceInterface
	validate *validator.Validate

	logger logging.LoggerInterface
}

func NewAPI(service ServiceInterface, logger logging.LoggerInterface) *API {
	return &API{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// RegisterEndpoints mounts the user surface. The admin sub-tree is expected
// to be wrapped with the admin gate by the router.
func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v1/me", a.me)
}

// RegisterAdminEndpoints mounts the admin-gated user management routes.
func (a *API) RegisterAdminEndpoints(mux chi.Router) {
	mux.Get("/api/v1/users", a.list)
	mux.Patch("/api/v1/users/{id}/role", a.updateRole)
}

type userResponse struct {
	ID         string  `json:"id"`
	ExternalID string  `json:"external_id"`
	Email      string  `json:"email"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	AvatarURL  *string `json:"avatar_url"`
	Role       string  `json:"role"`
}

func toUserResponse(u *types.User) userResponse {
	return userResponse{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		AvatarURL:  u.AvatarURL,
		Role:       string(u.Role),
	}
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, ok := authentication.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	a.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	list, total, err := a.service.ListUsers(r.Context())
	if err != nil {
		a.logger.Errorf("failed to list users: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	users := make([]userResponse, 0, len(list))
	for _, u := range list {
		users = append(users, toUserResponse(u))
	}

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
	})
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer admin super_admin"`
}

func (a *API) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.validate.Struct(req); err != nil {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	actor, _ := authentication.UserFromContext(r.Context())

	updated, err := a.service.UpdateUserRole(r.Context(), chi.URLParam(r, "id"), types.Role(req.Role), actor)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		a.logger.Errorf("failed to update user role: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a.writeJSON(w, http.StatusOK, toUserResponse(updated))
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}
