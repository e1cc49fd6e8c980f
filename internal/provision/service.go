package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/agentdesk/internal/metrics"
	"github.com/edvin/agentdesk/internal/model"
	"github.com/edvin/agentdesk/internal/notify"
)

// Service runs the agent provisioning saga: validate, resolve the identity,
// persist the record (rolling back a created identity on failure), then
// send the welcome message.
type Service struct {
	resolver   *Resolver
	cascade    *Cascade
	rollback   *RollbackCoordinator
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

func NewService(logger zerolog.Logger, dir Directory, records RecordStore, sender notify.Sender, loginURL string) *Service {
	return &Service{
		resolver:   NewResolver(dir, logger),
		cascade:    NewCascade(records, logger),
		rollback:   NewRollbackCoordinator(dir, logger),
		dispatcher: NewDispatcher(sender, loginURL, logger),
		logger:     logger.With().Str("component", "provisioning").Logger(),
	}
}

// ProvisionAgent provisions one agent and always returns a result; failures
// are reported through ErrorKind and Err, never as a panic or a nil result.
//
// Cancelling ctx stops the run only before the identity directory is
// contacted. From then on the saga runs to completion so that a created
// identity is either backed by a record or rolled back.
func (s *Service) ProvisionAgent(ctx context.Context, in Request) model.ProvisionResult {
	req, err := Validate(in)
	if err != nil {
		return s.fail(model.ProvisionResult{}, err)
	}

	if err := ctx.Err(); err != nil {
		return s.fail(model.ProvisionResult{},
			newError(model.ErrorKindIdentityDirectory, "provisioning aborted before contacting the identity directory", err))
	}
	ctx = context.WithoutCancel(ctx)

	log := s.logger.With().Str("email", req.Email).Logger()
	log.Info().Msg("provisioning agent")

	identityID, created, err := s.resolver.ResolveIdentity(ctx, req)
	if err != nil {
		return s.fail(model.ProvisionResult{}, err)
	}

	result := model.ProvisionResult{
		IdentityID:      identityID,
		IdentityCreated: created,
	}

	rec, err := s.cascade.PersistAgentRecord(ctx, identityID, req)
	if err != nil {
		if w := s.rollback.Rollback(ctx, identityID, created); w != nil {
			result.Warnings = append(result.Warnings, *w)
		}
		return s.fail(result, err)
	}

	result.Success = true
	result.AgentRecordID = rec.ID
	result.SchemaMode = rec.SchemaMode
	result.Agent = rec

	sent, w := s.dispatcher.Notify(ctx, req.Email, req.FullName, req.Password)
	result.NotificationSent = sent
	if w != nil {
		result.Warnings = append(result.Warnings, *w)
	}

	log.Info().
		Str("identity_id", identityID).
		Str("agent_id", rec.ID).
		Str("schema_mode", string(rec.SchemaMode)).
		Bool("identity_created", created).
		Bool("notification_sent", sent).
		Msg("agent provisioned")
	metrics.ObserveProvisioning("success")
	return result
}

func (s *Service) fail(result model.ProvisionResult, err error) model.ProvisionResult {
	return Failed(result, err, s.logger)
}

// Failed fills the failure fields of result from err.
func Failed(result model.ProvisionResult, err error, logger zerolog.Logger) model.ProvisionResult {
	kind := KindOf(err)
	if kind == "" {
		kind = model.ErrorKindPersistence
		err = newError(kind, "unclassified provisioning failure", err)
	}

	result.Success = false
	result.ErrorKind = kind
	result.Error = err.Error()
	result.Err = err
	var verr *ValidationError
	if errors.As(err, &verr) {
		result.Fields = verr.Fields
	}

	ev := logger.Warn()
	if kind != model.ErrorKindValidation {
		ev = logger.Error()
	}
	ev.Err(err).Str("error_kind", kind).Str("identity_id", result.IdentityID).Msg("provisioning failed")
	metrics.ObserveProvisioning(kind)
	return result
}

// Describe renders a result as one line for logs and the CLI.
func Describe(r model.ProvisionResult) string {
	if r.Success {
		return fmt.Sprintf("agent %s (identity %s, schema %s)", r.AgentRecordID, r.IdentityID, r.SchemaMode)
	}
	return fmt.Sprintf("%s: %s", r.ErrorKind, r.Error)
}
