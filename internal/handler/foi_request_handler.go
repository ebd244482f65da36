package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/models"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
	"github.com/noah-isme/foi-request-api/pkg/response"
)

type foiRequestService interface {
	Create(ctx context.Context, req dto.CreateFOIRequest, actorID string) (*models.FOIRequest, error)
	Get(ctx context.Context, id string) (*models.FOIRequest, error)
	List(ctx context.Context, query dto.FOIRequestQuery) (*dto.FOIRequestList, error)
	StartProcessing(ctx context.Context, id, actorID string) (*models.FOIRequest, error)
	GrantExtension(ctx context.Context, id, actorID string) (*models.FOIRequest, error)
	MarkComplete(ctx context.Context, id, actorID string) (*models.FOIRequest, error)
}

// FOIRequestHandler exposes the request register and lifecycle commands.
type FOIRequestHandler struct {
	service foiRequestService
}

// NewFOIRequestHandler constructs the handler.
func NewFOIRequestHandler(service foiRequestService) *FOIRequestHandler {
	return &FOIRequestHandler{service: service}
}

// List godoc
// @Summary List FOI requests
// @Description Filter by status and legislation (comma separated) and search requester name or id.
// @Tags Requests
// @Produce json
// @Param status query string false "Statuses, e.g. Pending Review,In Progress"
// @Param legislation query string false "Legislations, e.g. PHIPA,FIPPA"
// @Param search query string false "Case-insensitive requester name or id fragment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [get]
func (h *FOIRequestHandler) List(c *gin.Context) {
	query, err := parseRequestQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := responseMeta(c)
	meta["total"] = list.Total
	meta["shown"] = len(list.Items)
	meta["summary"] = fmt.Sprintf("Showing %d of %d requests", len(list.Items), list.Total)
	response.OK(c, list.Items, meta)
}

// Create godoc
// @Summary Register an FOI request
// @Description Due date and fee estimate are derived from the received date, type and legislation.
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateFOIRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [post]
func (h *FOIRequestHandler) Create(c *gin.Context) {
	var req dto.CreateFOIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Get godoc
// @Summary Get an FOI request
// @Tags Requests
// @Produce json
// @Param id path string true "Request id, e.g. FOI-2024-001"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *FOIRequestHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// Start godoc
// @Summary Start processing a request
// @Description Pending Review -> In Progress.
// @Tags Requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/start [post]
func (h *FOIRequestHandler) Start(c *gin.Context) {
	h.transition(c, h.service.StartProcessing)
}

// Extend godoc
// @Summary Grant the one-time extension
// @Description In Progress -> Extended, due date moves 30 days. Allowed once per request.
// @Tags Requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/extend [post]
func (h *FOIRequestHandler) Extend(c *gin.Context) {
	h.transition(c, h.service.GrantExtension)
}

// Complete godoc
// @Summary Mark a request completed
// @Description In Progress or Extended -> Completed.
// @Tags Requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/complete [post]
func (h *FOIRequestHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.MarkComplete)
}

func (h *FOIRequestHandler) transition(c *gin.Context, command func(ctx context.Context, id, actorID string) (*models.FOIRequest, error)) {
	record, err := command(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}
