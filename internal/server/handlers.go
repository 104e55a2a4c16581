package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/graphdata"
	"github.com/champtc/cyio-graph/internal/repository"
	"github.com/champtc/cyio-graph/internal/service"
)

const containersPrefix = "/containers/"

var validate = validator.New()

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.GraphService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.GraphService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

type filterRequest struct {
	Types     []string   `json:"types"`
	Exclude   []string   `json:"exclude"`
	MarkedBy  []string   `json:"markedBy"`
	CreatedBy []string   `json:"createdBy"`
	Start     *time.Time `json:"start" validate:"required_with=End"`
	End       *time.Time `json:"end" validate:"required_with=Start"`
}

func (f filterRequest) criteria() domain.FilterCriteria {
	criteria := domain.FilterCriteria{
		TypesAllow:     f.Types,
		TypesExclude:   f.Exclude,
		MarkedByAllow:  f.MarkedBy,
		CreatedByAllow: f.CreatedBy,
	}
	if f.Start != nil && f.End != nil {
		criteria.TimeInterval = &domain.TimeInterval{Start: f.Start.UTC(), End: f.End.UTC()}
	}
	return criteria
}

type buildRequest struct {
	Objects     []domain.Object `json:"objects" validate:"required"`
	Positions   string          `json:"positions"`
	Filters     filterRequest   `json:"filters"`
	Correlation bool            `json:"correlation"`
}

type ingestRequest struct {
	EntityType string          `json:"entityType"`
	Name       string          `json:"name"`
	Objects    []domain.Object `json:"objects" validate:"required"`
}

// objectIdentity holds the fields every ingested record must carry.
type objectIdentity struct {
	ID         string `validate:"required"`
	EntityType string `validate:"required"`
}

// positionsRequest carries a layout as a map, an encoded blob, or the graph
// nodes themselves with their pinned coordinates.
type positionsRequest struct {
	Positions domain.Positions   `json:"positions" validate:"required_without_all=Encoded Nodes"`
	Encoded   string             `json:"encoded"`
	Nodes     []domain.GraphNode `json:"nodes"`
}

func (req positionsRequest) layout() domain.Positions {
	switch {
	case req.Positions != nil:
		return req.Positions
	case req.Nodes != nil:
		return graphdata.PositionsFromNodes(req.Nodes)
	default:
		return graphdata.DecodePositions(req.Encoded)
	}
}

type positionsResponse struct {
	ContainerID string           `json:"containerId"`
	Positions   domain.Positions `json:"positions"`
	Encoded     string           `json:"encoded"`
}

type ingestResponse struct {
	ContainerID string `json:"containerId"`
	Ingested    int    `json:"ingested"`
}

func (h *APIHandlers) handleBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req buildRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	view := h.service.Build(r.Context(), service.BuildRequest{
		Objects:     req.Objects,
		Positions:   graphdata.DecodePositions(req.Positions),
		Filters:     req.Filters.criteria(),
		Correlation: req.Correlation,
	})
	respondJSON(w, http.StatusOK, view)
}

func (h *APIHandlers) handleContainers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	page, err := h.service.ListContainers(r.Context(), service.ListContainersParams{
		Page:       parseInt(query.Get("page"), 1),
		PageSize:   parseInt(query.Get("pageSize"), 50),
		Search:     query.Get("search"),
		EntityType: query.Get("entityType"),
		SortField:  query.Get("sortField"),
		SortOrder:  query.Get("sortOrder"),
	})
	if err != nil {
		h.logger.Error("failed to list containers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list containers")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *APIHandlers) handleContainer(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, containersPrefix), "/")
	containerID, sub, _ := strings.Cut(rest, "/")
	if strings.TrimSpace(containerID) == "" {
		writeError(w, http.StatusBadRequest, "container ID is required")
		return
	}

	switch sub {
	case "":
		h.getContainer(w, r, containerID)
	case "objects":
		h.ingestObjects(w, r, containerID)
	case "graph":
		h.containerGraph(w, r, containerID, false)
	case "correlation":
		h.containerGraph(w, r, containerID, true)
	case "time-range":
		h.containerTimeRange(w, r, containerID)
	case "positions":
		h.containerPositions(w, r, containerID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *APIHandlers) getContainer(w http.ResponseWriter, r *http.Request, containerID string) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		if err := h.service.DeleteContainer(r.Context(), containerID); err != nil {
			h.writeServiceError(w, err, "failed to delete container", containerID)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodDelete)
		return
	}
	container, err := h.service.GetContainer(r.Context(), containerID)
	if err != nil {
		h.writeServiceError(w, err, "failed to fetch container", containerID)
		return
	}
	respondJSON(w, http.StatusOK, container)
}

func (h *APIHandlers) ingestObjects(w http.ResponseWriter, r *http.Request, containerID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	for i, obj := range req.Objects {
		if err := validate.Struct(objectIdentity{ID: obj.ID, EntityType: obj.EntityType}); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("object %d: %s", i, validationMessage(err)))
			return
		}
	}

	err := h.service.IngestObjects(r.Context(), service.ContainerInput{
		ID:         containerID,
		EntityType: req.EntityType,
		Name:       req.Name,
	}, req.Objects)
	if err != nil {
		h.writeServiceError(w, err, "failed to ingest objects", containerID)
		return
	}
	respondJSON(w, http.StatusAccepted, ingestResponse{ContainerID: containerID, Ingested: len(req.Objects)})
}

func (h *APIHandlers) containerGraph(w http.ResponseWriter, r *http.Request, containerID string, correlation bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	criteria, err := parseFilterQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var view service.GraphView
	if correlation {
		view, err = h.service.ContainerCorrelation(r.Context(), containerID, criteria)
	} else {
		view, err = h.service.ContainerGraph(r.Context(), containerID, criteria)
	}
	if err != nil {
		h.writeServiceError(w, err, "failed to build graph", containerID)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *APIHandlers) containerTimeRange(w http.ResponseWriter, r *http.Request, containerID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	tr, err := h.service.ContainerTimeRange(r.Context(), containerID)
	if err != nil {
		h.writeServiceError(w, err, "failed to compute time range", containerID)
		return
	}
	respondJSON(w, http.StatusOK, tr)
}

func (h *APIHandlers) containerPositions(w http.ResponseWriter, r *http.Request, containerID string) {
	switch r.Method {
	case http.MethodGet:
		layout, err := h.service.ContainerPositions(r.Context(), containerID)
		if err != nil {
			h.writeServiceError(w, err, "failed to load positions", containerID)
			return
		}
		respondJSON(w, http.StatusOK, positionsResponse{
			ContainerID: containerID,
			Positions:   layout,
			Encoded:     graphdata.EncodePositions(layout),
		})
	case http.MethodPut:
		var req positionsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		layout := req.layout()
		flush, _ := strconv.ParseBool(r.URL.Query().Get("flush"))
		if err := h.service.SavePositions(r.Context(), containerID, layout, flush); err != nil {
			h.writeServiceError(w, err, "failed to save positions", containerID)
			return
		}
		respondJSON(w, http.StatusAccepted, positionsResponse{
			ContainerID: containerID,
			Positions:   layout,
			Encoded:     graphdata.EncodePositions(layout),
		})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

func (h *APIHandlers) writeServiceError(w http.ResponseWriter, err error, msg, containerID string) {
	switch {
	case errors.Is(err, repository.ErrContainerNotFound):
		writeError(w, http.StatusNotFound, "container not found")
	case errors.Is(err, service.ErrInvalidContainer):
		writeError(w, http.StatusBadRequest, "container ID is required")
	default:
		var taskErr *service.TaskError
		if errors.As(err, &taskErr) {
			h.logger.Error(msg, "error", err, "containerId", containerID, "failed", len(taskErr.Errors))
		} else {
			h.logger.Error(msg, "error", err, "containerId", containerID)
		}
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func parseFilterQuery(r *http.Request) (domain.FilterCriteria, error) {
	query := r.URL.Query()
	req := filterRequest{
		Types:     splitCSV(query.Get("types")),
		Exclude:   splitCSV(query.Get("exclude")),
		MarkedBy:  splitCSV(query.Get("markedBy")),
		CreatedBy: splitCSV(query.Get("createdBy")),
	}

	start, err := parseTimeParam(query.Get("start"))
	if err != nil {
		return domain.FilterCriteria{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := parseTimeParam(query.Get("end"))
	if err != nil {
		return domain.FilterCriteria{}, fmt.Errorf("invalid end: %w", err)
	}
	if (start == nil) != (end == nil) {
		return domain.FilterCriteria{}, errors.New("start and end must be provided together")
	}
	req.Start, req.End = start, end
	return req.criteria(), nil
}

func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
