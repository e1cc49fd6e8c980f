package workflow

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/agentdesk/internal/activity"
	"github.com/edvin/agentdesk/internal/model"
)

// TaskQueue is the queue the provisioning worker polls.
const TaskQueue = "agentdesk-tasks"

// ProvisionAgentWorkflowID returns the workflow ID for provisioning email.
// Duplicate submissions for the same email share one ID.
func ProvisionAgentWorkflowID(email string) string {
	return "provision-agent-" + email
}

// ProvisionAgentWorkflow runs the provisioning saga as activities. The request
// must already be validated. Terminal failures are reported in the result;
// the workflow error is reserved for problems the saga cannot classify.
func ProvisionAgentWorkflow(ctx workflow.Context, req model.ProvisioningRequest) (model.ProvisionResult, error) {
	logger := workflow.GetLogger(ctx)

	// Identity creation and persistence must not be retried blindly.
	onceCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	rollbackCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
		},
	})

	var result model.ProvisionResult

	var identity activity.ResolveIdentityResult
	err := workflow.ExecuteActivity(onceCtx, "ResolveAgentIdentity", req).Get(ctx, &identity)
	if err != nil {
		return failedResult(result, err, model.ErrorKindIdentityDirectory), nil
	}
	result.IdentityID = identity.IdentityID
	result.IdentityCreated = identity.Created

	var rec model.AgentRecord
	err = workflow.ExecuteActivity(onceCtx, "PersistAgentRecord", activity.PersistAgentRecordParams{
		IdentityID: identity.IdentityID,
		Request:    req,
	}).Get(ctx, &rec)
	if err != nil {
		var appErr *temporal.ApplicationError
		if !errors.As(err, &appErr) || appErr.Type() != model.ErrorKindPersistence {
			// The insert may have committed; leave the identity for a re-run
			// to adopt rather than orphan a record.
			logger.Warn("persistence outcome unknown, identity left in place",
				"identity_id", identity.IdentityID, "error", err)
			if identity.Created {
				result.Warnings = append(result.Warnings, model.Warning{
					Kind:    model.WarningKindRollback,
					Message: fmt.Sprintf("identity %s left in place: persistence outcome unknown", identity.IdentityID),
				})
			}
			return failedResult(result, err, model.ErrorKindPersistence), nil
		}

		if identity.Created {
			rbErr := workflow.ExecuteActivity(rollbackCtx, "RollbackAgentIdentity", activity.RollbackAgentIdentityParams{
				IdentityID: identity.IdentityID,
				Created:    identity.Created,
			}).Get(ctx, nil)
			if rbErr != nil {
				logger.Error("identity rollback failed", "identity_id", identity.IdentityID, "error", rbErr)
				result.Warnings = append(result.Warnings, model.Warning{
					Kind:    model.WarningKindRollback,
					Message: rbErr.Error(),
				})
			}
		}
		return failedResult(result, err, model.ErrorKindPersistence), nil
	}

	result.Success = true
	result.AgentRecordID = rec.ID
	result.SchemaMode = rec.SchemaMode
	result.Agent = &rec

	var welcome activity.SendAgentWelcomeResult
	err = workflow.ExecuteActivity(onceCtx, "SendAgentWelcome", activity.SendAgentWelcomeParams{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	}).Get(ctx, &welcome)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, model.Warning{
			Kind:    model.WarningKindNotification,
			Message: err.Error(),
		})
	case welcome.Warning != nil:
		result.Warnings = append(result.Warnings, *welcome.Warning)
	}
	result.NotificationSent = err == nil && welcome.Sent

	logger.Info("agent provisioned",
		"identity_id", result.IdentityID,
		"agent_id", result.AgentRecordID,
		"schema_mode", string(result.SchemaMode))
	return result, nil
}

// failedResult records err on result. Classified activity errors keep their
// kind; anything else gets fallbackKind.
func failedResult(result model.ProvisionResult, err error, fallbackKind string) model.ProvisionResult {
	result.Success = false
	result.ErrorKind = fallbackKind
	result.Error = err.Error()

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && terminalKinds[appErr.Type()] {
		result.ErrorKind = appErr.Type()
		result.Error = appErr.Message()
	}
	return result
}

var terminalKinds = map[string]bool{
	model.ErrorKindIdentityDirectory:  true,
	model.ErrorKindIdentityResolution: true,
	model.ErrorKindPersistence:        true,
}
