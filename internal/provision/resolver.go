package provision

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/edvin/agentdesk/internal/directory"
	"github.com/edvin/agentdesk/internal/model"
)

// Directory is the identity directory the saga talks to.
// *directory.Client and *directory.Memory satisfy this interface.
type Directory interface {
	CreateIdentity(ctx context.Context, email, password string, meta model.IdentityMetadata) (*directory.Identity, error)
	FindIdentityByEmail(ctx context.Context, email string) (*directory.Identity, error)
	UpdateIdentityMetadata(ctx context.Context, id string, meta model.IdentityMetadata) error
	DeleteIdentity(ctx context.Context, id string) error
}

// Resolver obtains the identity for a request, creating it or adopting an
// existing one registered under the same email.
type Resolver struct {
	dir    Directory
	logger zerolog.Logger
}

func NewResolver(dir Directory, logger zerolog.Logger) *Resolver {
	return &Resolver{
		dir:    dir,
		logger: logger.With().Str("component", "identity-resolver").Logger(),
	}
}

// ResolveIdentity returns the identity ID for req and whether this call
// created it. Only a created identity is ever eligible for rollback.
func (r *Resolver) ResolveIdentity(ctx context.Context, req model.ProvisioningRequest) (string, bool, error) {
	meta := model.AgentMetadata(req)

	identity, err := r.dir.CreateIdentity(ctx, req.Email, req.Password, meta)
	if err == nil {
		r.logger.Info().Str("identity_id", identity.ID).Str("email", req.Email).Msg("identity created")
		return identity.ID, true, nil
	}
	if !errors.Is(err, directory.ErrAlreadyExists) {
		return "", false, newError(model.ErrorKindIdentityDirectory, "create identity", err)
	}

	r.logger.Info().Str("email", req.Email).Msg("identity already registered, adopting existing")

	existing, err := r.dir.FindIdentityByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return "", false, newError(model.ErrorKindIdentityResolution,
				"identity reported as existing but not found by email", err)
		}
		return "", false, newError(model.ErrorKindIdentityDirectory, "look up existing identity", err)
	}

	if err := r.dir.UpdateIdentityMetadata(ctx, existing.ID, meta); err != nil {
		return "", false, newError(model.ErrorKindIdentityDirectory, "update existing identity metadata", err)
	}

	r.logger.Info().Str("identity_id", existing.ID).Str("email", req.Email).Msg("existing identity adopted")
	return existing.ID, false, nil
}
