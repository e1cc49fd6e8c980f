package model

import "time"

// Agent status values accepted on provisioning requests.
const (
	AgentStatusActive   = "Active"
	AgentStatusInactive = "Inactive"
)

// DefaultCommissionRate is applied when a request omits commission_rate.
const DefaultCommissionRate = 50.0

// RoleAgent is the role tag stored in identity metadata.
const RoleAgent = "agent"

// SchemaMode records which persistence shape produced an agent record.
type SchemaMode string

const (
	SchemaModeFull    SchemaMode = "full"
	SchemaModeLegacy  SchemaMode = "legacy"
	SchemaModeMinimal SchemaMode = "minimal"
)

// ProvisioningRequest is a validated, normalized request to provision an agent.
type ProvisioningRequest struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	FullName       string  `json:"full_name"`
	CompanyName    string  `json:"company_name"`
	Phone          string  `json:"phone,omitempty"`
	TaxID          string  `json:"tax_id,omitempty"`
	Address        string  `json:"address,omitempty"`
	City           string  `json:"city,omitempty"`
	State          string  `json:"state,omitempty"`
	Zip            string  `json:"zip,omitempty"`
	CommissionRate float64 `json:"commission_rate"`
	BonusNotes     string  `json:"bonus_notes,omitempty"`
	Status         string  `json:"status"`
}

// IsActive reports whether the requested status is Active.
func (r ProvisioningRequest) IsActive() bool {
	return r.Status == AgentStatusActive
}

// IdentityMetadata is the role metadata kept on the identity directory side.
type IdentityMetadata struct {
	Role        string `json:"role"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
}

// AgentMetadata builds the directory metadata for an agent request.
func AgentMetadata(r ProvisioningRequest) IdentityMetadata {
	return IdentityMetadata{
		Role:        RoleAgent,
		FullName:    r.FullName,
		CompanyName: r.CompanyName,
	}
}

// AgentRecord is the persisted business record for an agent. Optional columns
// are pointers because degraded shapes leave them NULL.
type AgentRecord struct {
	ID             string     `json:"id"`
	AuthIdentityID string     `json:"auth_identity_id"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	CompanyName    string     `json:"company_name"`
	Phone          *string    `json:"phone,omitempty"`
	TaxID          *string    `json:"tax_id,omitempty"`
	Address        *string    `json:"address,omitempty"`
	City           *string    `json:"city,omitempty"`
	State          *string    `json:"state,omitempty"`
	Zip            *string    `json:"zip,omitempty"`
	CommissionRate *float64   `json:"commission_rate,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
	Commission     *string    `json:"commission,omitempty"`
	Status         *string    `json:"status,omitempty"`
	BonusNotes     *string    `json:"bonus_notes,omitempty"`
	SchemaMode     SchemaMode `json:"schema_mode,omitempty"`
	MigrationNotes *string    `json:"migration_notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MigrationNotes is the JSON payload stored in migration_notes when a
// degraded shape was used. It lets operators reconcile the record later.
type MigrationNotes struct {
	SchemaMode  SchemaMode     `json:"schema_mode"`
	Degradation string         `json:"degradation"`
	Failures    []ShapeFailure `json:"failures"`
	Deferred    map[string]any `json:"deferred,omitempty"`
}

// ShapeFailure records why a richer shape was rejected.
type ShapeFailure struct {
	Shape SchemaMode `json:"shape"`
	Error string     `json:"error"`
}
