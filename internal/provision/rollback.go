package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/agentdesk/internal/directory"
	"github.com/edvin/agentdesk/internal/metrics"
	"github.com/edvin/agentdesk/internal/model"
)

// RollbackCoordinator removes an identity created earlier in the same run.
type RollbackCoordinator struct {
	dir    Directory
	logger zerolog.Logger
}

func NewRollbackCoordinator(dir Directory, logger zerolog.Logger) *RollbackCoordinator {
	return &RollbackCoordinator{
		dir:    dir,
		logger: logger.With().Str("component", "identity-rollback").Logger(),
	}
}

// Rollback deletes identityID when created is true. Pre-existing
// identities are never touched. A failed delete is reported as a warning
// and never replaces the error that triggered the rollback.
func (r *RollbackCoordinator) Rollback(ctx context.Context, identityID string, created bool) *model.Warning {
	if !created {
		r.logger.Info().Str("identity_id", identityID).Msg("identity pre-existed, leaving it in place")
		metrics.ObserveRollback("skipped")
		return nil
	}

	err := r.dir.DeleteIdentity(ctx, identityID)
	if err == nil || errors.Is(err, directory.ErrNotFound) {
		r.logger.Info().Str("identity_id", identityID).Msg("identity rolled back")
		metrics.ObserveRollback("deleted")
		return nil
	}

	r.logger.Error().Err(err).Str("identity_id", identityID).Msg("identity rollback failed, orphan left behind")
	metrics.ObserveRollback("failed")
	return &model.Warning{
		Kind:    model.WarningKindRollback,
		Message: fmt.Sprintf("failed to delete identity %s: %v", identityID, err),
	}
}
