package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/agentdesk/internal/api/request"
	"github.com/edvin/agentdesk/internal/api/response"
	"github.com/edvin/agentdesk/internal/core"
	"github.com/edvin/agentdesk/internal/model"
	"github.com/edvin/agentdesk/internal/provision"
	"github.com/edvin/agentdesk/internal/store"
)

type Agent struct {
	svc *core.AgentService
}

func NewAgent(svc *core.AgentService) *Agent {
	return &Agent{svc: svc}
}

// Create provisions an agent and waits for the outcome.
func (h *Agent) Create(w http.ResponseWriter, r *http.Request) {
	var in provision.Request
	if err := request.Decode(w, r, &in); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.svc.Provision(r.Context(), in)
	response.WriteResult(w, http.StatusCreated, res)
}

// CreateAsync starts durable provisioning and returns the workflow ID.
func (h *Agent) CreateAsync(w http.ResponseWriter, r *http.Request) {
	var in provision.Request
	if err := request.Decode(w, r, &in); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	workflowID, err := h.svc.ProvisionAsync(r.Context(), in)
	if err != nil {
		var verr *provision.ValidationError
		if errors.As(err, &verr) {
			response.WriteResult(w, http.StatusAccepted,
				provision.Failed(model.ProvisionResult{}, err, *zerolog.Ctx(r.Context())))
			return
		}
		response.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]string{"workflow_id": workflowID})
}

// Result waits for a durable provisioning run and returns its outcome.
func (h *Agent) Result(w http.ResponseWriter, r *http.Request) {
	workflowID, err := request.RequireID(chi.URLParam(r, "workflowID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.ProvisioningResult(r.Context(), workflowID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrRunNotFound):
			response.WriteError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, core.ErrAsyncUnavailable):
			response.WriteError(w, http.StatusServiceUnavailable, err.Error())
		default:
			response.WriteError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	response.WriteResult(w, http.StatusOK, res)
}

func (h *Agent) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, rec)
}
