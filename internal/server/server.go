// Package server exposes the claim registry over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sojunghan/territory-cli/internal/config"
	"github.com/sojunghan/territory-cli/internal/geo"
	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/registry"
	"github.com/sojunghan/territory-cli/internal/territory"
)

// Handler serves the territory API.
type Handler struct {
	svc *territory.Service
	cfg *config.Config
}

// NewHandler creates a Handler.
func NewHandler(svc *territory.Service, cfg *config.Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// Router builds the chi router with CORS and request logging.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Get("/config/map", h.mapConfig)
	r.Get("/search", h.search)

	r.Get("/claims", h.listClaims)
	r.Get("/claims.geojson", h.claimsGeoJSON)
	r.Post("/claims", h.createClaim)
	r.Delete("/claims/{id}", h.deleteClaim)

	r.Get("/owners", h.owners)
	r.Post("/owners/{owner}/rename", h.renameOwner)
	r.Post("/owners/{owner}/branches/{branch}/rename", h.renameBranch)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"claims": h.svc.Registry().Len(),
	})
}

type mapResponse struct {
	config.MapConfig
	Radii model.Radii `json:"radii"`
}

func (h *Handler) mapConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, mapResponse{MapConfig: h.cfg.Map, Radii: h.svc.Registry().Radii()})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	matches, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (h *Handler) listClaims(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Registry().List(r.URL.Query().Get("owner")))
}

func (h *Handler) claimsGeoJSON(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Registry()
	zones, _ := strconv.ParseBool(r.URL.Query().Get("zones"))

	body, err := geo.MarshalClaims(reg.List(r.URL.Query().Get("owner")), geo.FeatureOptions{
		Zones: zones,
		Radii: reg.Radii(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck
}

func (h *Handler) createClaim(w http.ResponseWriter, r *http.Request) {
	var req territory.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	c, err := h.svc.Claim(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) deleteClaim(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Registry().Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) owners(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Registry().Owners())
}

type renameRequest struct {
	Name string `json:"name"`
}

type renameResponse struct {
	Renamed int `json:"renamed"`
}

func (h *Handler) renameOwner(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	n, err := h.svc.Registry().RenameOwner(r.Context(), chi.URLParam(r, "owner"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renameResponse{Renamed: n})
}

func (h *Handler) renameBranch(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	n, err := h.svc.Registry().RenameBranch(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "branch"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renameResponse{Renamed: n})
}

type errorBody struct {
	Error         string `json:"error"`
	BlockingOwner string `json:"blocking_owner,omitempty"`
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a 500 without its detail.
func writeError(w http.ResponseWriter, err error) {
	var (
		conflict *registry.ConflictError
		badPoint *model.InvalidGeoPointError
		choice   *territory.ChoiceError
	)
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: conflict.Error(), BlockingOwner: conflict.BlockingOwner})
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, territory.ErrNoMatch):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.As(err, &badPoint), errors.As(err, &choice),
		errors.Is(err, registry.ErrOwnerRequired), errors.Is(err, registry.ErrKeyDelimiter),
		errors.Is(err, territory.ErrQueryRequired):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, territory.ErrNoGeocoder):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	default:
		zap.L().Error("server: request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
