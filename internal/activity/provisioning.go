package activity

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/temporal"

	"github.com/edvin/agentdesk/internal/model"
	"github.com/edvin/agentdesk/internal/notify"
	"github.com/edvin/agentdesk/internal/provision"
)

// Provisioning exposes each stage of the agent provisioning saga as a
// Temporal activity.
type Provisioning struct {
	resolver   *provision.Resolver
	cascade    *provision.Cascade
	rollback   *provision.RollbackCoordinator
	dispatcher *provision.Dispatcher
}

func NewProvisioning(logger zerolog.Logger, dir provision.Directory, records provision.RecordStore, sender notify.Sender, loginURL string) *Provisioning {
	return &Provisioning{
		resolver:   provision.NewResolver(dir, logger),
		cascade:    provision.NewCascade(records, logger),
		rollback:   provision.NewRollbackCoordinator(dir, logger),
		dispatcher: provision.NewDispatcher(sender, loginURL, logger),
	}
}

// ResolveIdentityResult is the outcome of ResolveAgentIdentity.
type ResolveIdentityResult struct {
	IdentityID string `json:"identity_id"`
	Created    bool   `json:"created"`
}

// ResolveAgentIdentity creates or adopts the directory identity.
func (a *Provisioning) ResolveAgentIdentity(ctx context.Context, req model.ProvisioningRequest) (*ResolveIdentityResult, error) {
	id, created, err := a.resolver.ResolveIdentity(ctx, req)
	if err != nil {
		return nil, applicationError(err)
	}
	return &ResolveIdentityResult{IdentityID: id, Created: created}, nil
}

// PersistAgentRecordParams holds the input for PersistAgentRecord.
type PersistAgentRecordParams struct {
	IdentityID string                    `json:"identity_id"`
	Request    model.ProvisioningRequest `json:"request"`
}

// PersistAgentRecord writes the agent record through the shape cascade.
func (a *Provisioning) PersistAgentRecord(ctx context.Context, params PersistAgentRecordParams) (*model.AgentRecord, error) {
	rec, err := a.cascade.PersistAgentRecord(ctx, params.IdentityID, params.Request)
	if err != nil {
		return nil, applicationError(err)
	}
	return rec, nil
}

// RollbackAgentIdentityParams holds the input for RollbackAgentIdentity.
type RollbackAgentIdentityParams struct {
	IdentityID string `json:"identity_id"`
	Created    bool   `json:"created"`
}

// RollbackAgentIdentity deletes an identity created by this run. Failures
// are returned as retryable errors; the workflow turns the final one into a
// warning.
func (a *Provisioning) RollbackAgentIdentity(ctx context.Context, params RollbackAgentIdentityParams) error {
	if w := a.rollback.Rollback(ctx, params.IdentityID, params.Created); w != nil {
		return errors.New(w.Message)
	}
	return nil
}

// SendAgentWelcomeParams holds the input for SendAgentWelcome.
type SendAgentWelcomeParams struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// SendAgentWelcomeResult is the outcome of SendAgentWelcome.
type SendAgentWelcomeResult struct {
	Sent    bool           `json:"sent"`
	Warning *model.Warning `json:"warning,omitempty"`
}

// SendAgentWelcome sends the welcome message. It does not return an error
// for delivery problems.
func (a *Provisioning) SendAgentWelcome(ctx context.Context, params SendAgentWelcomeParams) (*SendAgentWelcomeResult, error) {
	sent, w := a.dispatcher.Notify(ctx, params.Email, params.FullName, params.Password)
	return &SendAgentWelcomeResult{Sent: sent, Warning: w}, nil
}

// applicationError converts a classified provisioning error into a
// non-retryable application error whose type is the error kind.
func applicationError(err error) error {
	kind := provision.KindOf(err)
	if kind == "" {
		return err
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), kind, err)
}
