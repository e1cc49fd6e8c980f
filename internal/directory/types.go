package directory

import (
	"errors"

	"github.com/edvin/agentdesk/internal/model"
)

var (
	// ErrAlreadyExists is returned by CreateIdentity when the email is
	// already registered in the directory.
	ErrAlreadyExists = errors.New("identity already exists")
	// ErrNotFound is returned when no identity matches.
	ErrNotFound = errors.New("identity not found")
)

// Identity is an account in the identity directory.
type Identity struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	Metadata model.IdentityMetadata `json:"user_metadata"`
}

// duplicateCodes are the structured error codes the admin API uses for an
// already-registered email.
var duplicateCodes = map[string]bool{
	"email_exists":        true,
	"user_already_exists": true,
}
