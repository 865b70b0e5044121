package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/de-tools/data-pump/pkg/adapters"
	"github.com/de-tools/data-pump/pkg/models/api"
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/services/report"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListPumps(w http.ResponseWriter, r *http.Request) {
	registry := h.service.Engine().Registry()

	response := []api.Pump{}
	for _, name := range registry.List() {
		def, err := registry.Lookup(name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response = append(response, adapters.MapPumpDefinitionToApi(name, def))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) GetPump(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "pump")
	def, err := h.service.Engine().Registry().Lookup(name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapPumpDefinitionToApi(name, def))
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	configs, err := h.service.Store().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]api.ReportSummary, 0, len(configs))
	for _, c := range configs {
		response = append(response, adapters.MapReportSummaryDomainToApi(c))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Store().Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response, err := adapters.MapReportConfigDomainToApi(*cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response)
}

// SaveReport creates a report, or replaces one when the body carries an id.
func (h *Handler) SaveReport(w http.ResponseWriter, r *http.Request) {
	var body api.ReportConfig
	if err := decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	cfg, err := adapters.MapReportConfigApiToDomain(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.service.Save(r.Context(), cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if body.ID != "" {
		status = http.StatusOK
	}
	writeJSON(w, r, status, api.SaveResponse{ID: id})
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Store().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	var body api.RunRequest
	if err := decode(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, err)
		return
	}

	table, err := h.service.RunStored(r.Context(), chi.URLParam(r, "id"), body.Parameters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapResultTableDomainToApi(table))
}

var errBadRequest = errors.New("bad request")

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// StatusFor maps report errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPumpGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrReportNotFound),
		errors.Is(err, domain.ErrUnknownPumpType):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrMissingParameter),
		errors.Is(err, domain.ErrTypeMismatch),
		errors.Is(err, domain.ErrValueNotInDomain),
		errors.Is(err, domain.ErrInvalidDataType),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidExpression):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	event := zerolog.Ctx(r.Context()).Warn()
	if status == http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")

	writeJSON(w, r, status, api.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
