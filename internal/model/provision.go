package model

// Terminal error kinds of a provisioning run.
const (
	ErrorKindValidation         = "ValidationError"
	ErrorKindIdentityDirectory  = "IdentityDirectoryError"
	ErrorKindIdentityResolution = "IdentityResolutionError"
	ErrorKindPersistence        = "PersistenceError"
)

// Secondary condition kinds. These never change the outcome of a run.
const (
	WarningKindRollback     = "RollbackWarning"
	WarningKindNotification = "NotificationError"
)

// Warning is a secondary condition recorded alongside the primary outcome.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// FieldError describes one invalid or missing request field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ProvisionResult is the outcome of one provisioning run.
type ProvisionResult struct {
	Success          bool         `json:"success"`
	AgentRecordID    string       `json:"agent_record_id,omitempty"`
	IdentityID       string       `json:"identity_id,omitempty"`
	IdentityCreated  bool         `json:"identity_created"`
	NotificationSent bool         `json:"notification_sent"`
	SchemaMode       SchemaMode   `json:"schema_mode,omitempty"`
	Agent            *AgentRecord `json:"agent,omitempty"`
	ErrorKind        string       `json:"error_kind,omitempty"`
	Error            string       `json:"error,omitempty"`
	Fields           []FieldError `json:"fields,omitempty"`
	Warnings         []Warning    `json:"warnings,omitempty"`

	// Err is the underlying Go error of a failed run.
	Err error `json:"-"`
}
