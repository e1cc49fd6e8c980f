package core

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/serviceerror"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/agentdesk/internal/model"
	"github.com/edvin/agentdesk/internal/provision"
	"github.com/edvin/agentdesk/internal/workflow"
)

var (
	// ErrAsyncUnavailable is returned by the durable operations when no
	// Temporal client is configured.
	ErrAsyncUnavailable = errors.New("durable provisioning is not configured")
	// ErrRunNotFound is returned when no provisioning run matches a workflow ID.
	ErrRunNotFound = errors.New("provisioning run not found")
)

// Provisioner runs the provisioning saga in-process.
type Provisioner interface {
	ProvisionAgent(ctx context.Context, in provision.Request) model.ProvisionResult
}

// AgentReader reads persisted agent records.
type AgentReader interface {
	GetByID(ctx context.Context, id string) (*model.AgentRecord, error)
}

type AgentService struct {
	provisioner Provisioner
	agents      AgentReader
	tc          temporalclient.Client
}

// NewAgentService returns the agent service. tc may be nil, in which case
// only synchronous provisioning is available.
func NewAgentService(provisioner Provisioner, agents AgentReader, tc temporalclient.Client) *AgentService {
	return &AgentService{provisioner: provisioner, agents: agents, tc: tc}
}

// AsyncEnabled reports whether durable provisioning is available.
func (s *AgentService) AsyncEnabled() bool {
	return s.tc != nil
}

// Provision provisions an agent synchronously.
func (s *AgentService) Provision(ctx context.Context, in provision.Request) model.ProvisionResult {
	return s.provisioner.ProvisionAgent(ctx, in)
}

// ProvisionAsync validates in and starts ProvisionAgentWorkflow. A second
// submission for an email whose run is still open attaches to that run.
// It returns the workflow ID, or a *provision.ValidationError.
func (s *AgentService) ProvisionAsync(ctx context.Context, in provision.Request) (string, error) {
	if s.tc == nil {
		return "", ErrAsyncUnavailable
	}

	req, err := provision.Validate(in)
	if err != nil {
		return "", err
	}

	workflowID := workflow.ProvisionAgentWorkflowID(req.Email)
	run, err := s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: workflow.TaskQueue,
	}, "ProvisionAgentWorkflow", req)
	if err != nil {
		return "", fmt.Errorf("start ProvisionAgentWorkflow: %w", err)
	}
	return run.GetID(), nil
}

// ProvisioningResult waits for the workflow to finish and returns its result.
func (s *AgentService) ProvisioningResult(ctx context.Context, workflowID string) (model.ProvisionResult, error) {
	if s.tc == nil {
		return model.ProvisionResult{}, ErrAsyncUnavailable
	}

	var result model.ProvisionResult
	if err := s.tc.GetWorkflow(ctx, workflowID, "").Get(ctx, &result); err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return model.ProvisionResult{}, fmt.Errorf("%w: %s", ErrRunNotFound, workflowID)
		}
		return model.ProvisionResult{}, fmt.Errorf("get provisioning result %s: %w", workflowID, err)
	}
	return result, nil
}

// Get returns a persisted agent record.
func (s *AgentService) Get(ctx context.Context, id string) (*model.AgentRecord, error) {
	return s.agents.GetByID(ctx, id)
}
