package store

import (
	"strconv"

	"github.com/edvin/agentdesk/internal/model"
)

// Shape is one field mapping for the agents table. Shapes differ because the
// table definition is migrated over time.
type Shape struct {
	Mode    model.SchemaMode
	Columns []string
	// Build maps a request onto the record fields this shape writes.
	Build func(identityID string, req model.ProvisioningRequest) model.AgentRecord
}

var profileColumns = []string{"phone", "tax_id", "address", "city", "state", "zip", "bonus_notes"}

// ShapeFull writes the current column set with typed commission and status.
var ShapeFull = Shape{
	Mode: model.SchemaModeFull,
	Columns: append(append([]string{"auth_user_id", "full_name", "email", "company_name"}, profileColumns...),
		"commission_rate", "is_active", "migration_notes"),
	Build: func(identityID string, req model.ProvisioningRequest) model.AgentRecord {
		rec := baseRecord(identityID, req)
		setProfile(&rec, req)
		rate := req.CommissionRate
		active := req.IsActive()
		rec.CommissionRate = &rate
		rec.IsActive = &active
		return rec
	},
}

// ShapeLegacy writes the pre-migration column set: commission and status as text.
var ShapeLegacy = Shape{
	Mode: model.SchemaModeLegacy,
	Columns: append(append([]string{"auth_user_id", "full_name", "email", "company_name"}, profileColumns...),
		"commission", "status", "migration_notes"),
	Build: func(identityID string, req model.ProvisioningRequest) model.AgentRecord {
		rec := baseRecord(identityID, req)
		setProfile(&rec, req)
		commission := FormatCommission(req.CommissionRate)
		status := req.Status
		rec.Commission = &commission
		rec.Status = &status
		return rec
	},
}

// ShapeMinimal writes only the columns every schema generation has.
var ShapeMinimal = Shape{
	Mode:    model.SchemaModeMinimal,
	Columns: []string{"auth_user_id", "full_name", "email", "company_name", "migration_notes"},
	Build:   baseRecord,
}

// FormatCommission renders a commission rate for the textual legacy column.
func FormatCommission(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 2, 64)
}

func baseRecord(identityID string, req model.ProvisioningRequest) model.AgentRecord {
	return model.AgentRecord{
		AuthIdentityID: identityID,
		FullName:       req.FullName,
		Email:          req.Email,
		CompanyName:    req.CompanyName,
	}
}

func setProfile(rec *model.AgentRecord, req model.ProvisioningRequest) {
	rec.Phone = optional(req.Phone)
	rec.TaxID = optional(req.TaxID)
	rec.Address = optional(req.Address)
	rec.City = optional(req.City)
	rec.State = optional(req.State)
	rec.Zip = optional(req.Zip)
	rec.BonusNotes = optional(req.BonusNotes)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func columnValue(rec *model.AgentRecord, col string) any {
	switch col {
	case "auth_user_id":
		return rec.AuthIdentityID
	case "full_name":
		return rec.FullName
	case "email":
		return rec.Email
	case "company_name":
		return rec.CompanyName
	case "phone":
		return rec.Phone
	case "tax_id":
		return rec.TaxID
	case "address":
		return rec.Address
	case "city":
		return rec.City
	case "state":
		return rec.State
	case "zip":
		return rec.Zip
	case "commission_rate":
		return rec.CommissionRate
	case "is_active":
		return rec.IsActive
	case "commission":
		return rec.Commission
	case "status":
		return rec.Status
	case "bonus_notes":
		return rec.BonusNotes
	case "migration_notes":
		return rec.MigrationNotes
	}
	panic("store: unknown agents column " + col)
}
