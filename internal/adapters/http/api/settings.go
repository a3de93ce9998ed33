package api

import (
	"net/http"
	"strings"

	"github.com/okian/kpiboard/internal/domain/settings"
	"github.com/okian/kpiboard/pkg/logger"
)

type benchmarkRequest struct {
	Key string  `json:"key"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type roleRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type memberRequest struct {
	Name string `json:"name"`
}

type aliasRequest struct {
	Alias     string `json:"alias"`
	Canonical string `json:"canonical"`
}

// SettingsHandler reads and edits benchmarks, roles and aliases.
type SettingsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(deps Dependencies, log logger.Logger) *SettingsHandler {
	return &SettingsHandler{deps: deps, logger: log}
}

// HandleGetSettings handles GET /settings.
func (h *SettingsHandler) HandleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Settings())
}

// HandleGetBenchmarks handles GET /settings/benchmarks.
func (h *SettingsHandler) HandleGetBenchmarks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Settings().Benchmarks)
}

// HandlePutBenchmark handles PUT /settings/benchmarks with {key, min, max}.
func (h *SettingsHandler) HandlePutBenchmark(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_benchmark"
	var req benchmarkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.UpdateBenchmark(r.Context(), req.Key, settings.Range{Min: req.Min, Max: req.Max}); err != nil {
		writeError(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Settings().Benchmarks)
}

// HandleGetRoles handles GET /settings/roles.
func (h *SettingsHandler) HandleGetRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Settings().Roles)
}

// HandlePutRole handles PUT /settings/roles with {name, role}.
func (h *SettingsHandler) HandlePutRole(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_role"
	var req roleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	role, err := settings.ParseRole(req.Role)
	if err != nil {
		writeError(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	if err := h.deps.AssignRole(r.Context(), req.Name, role); err != nil {
		writeError(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Settings().Roles)
}

// HandlePostMember handles POST /settings/roles with {name}. New members
// start as Lead Generators.
func (h *SettingsHandler) HandlePostMember(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_member"
	var req memberRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.AddMember(r.Context(), req.Name); err != nil {
		writeError(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, h.deps.Settings().Roles)
}

// HandleDeleteMember handles DELETE /settings/roles/{name}.
func (h *SettingsHandler) HandleDeleteMember(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_member"
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(r.Context(), w, h.logger, NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.RemoveMember(r.Context(), name); err != nil {
		writeError(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetAliases handles GET /settings/aliases.
func (h *SettingsHandler) HandleGetAliases(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Settings().Aliases)
}

// HandlePutAlias handles PUT /settings/aliases with {alias, canonical}. An
// empty canonical removes the alias.
func (h *SettingsHandler) HandlePutAlias(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_alias"
	var req aliasRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetAlias(r.Context(), req.Alias, req.Canonical); err != nil {
		writeError(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Settings().Aliases)
}
