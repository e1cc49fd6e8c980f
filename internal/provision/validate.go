package provision

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edvin/agentdesk/internal/model"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Request is a raw provisioning payload as received from a caller.
type Request struct {
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required"`
	FullName       string   `json:"full_name" validate:"required"`
	CompanyName    string   `json:"company_name" validate:"required"`
	Phone          string   `json:"phone"`
	TaxID          string   `json:"tax_id"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Zip            string   `json:"zip"`
	CommissionRate *float64 `json:"commission_rate" validate:"omitempty,gte=0,lte=100"`
	BonusNotes     string   `json:"bonus_notes"`
	Status         string   `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

// Validate normalizes a raw request and checks it. It has no side effects.
// On failure it returns a *ValidationError naming every offending field.
func Validate(in Request) (model.ProvisioningRequest, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.TaxID = strings.TrimSpace(in.TaxID)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Zip = strings.TrimSpace(in.Zip)
	in.BonusNotes = strings.TrimSpace(in.BonusNotes)
	in.Status = normalizeStatus(in.Status)

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return model.ProvisioningRequest{}, fmt.Errorf("validate request: %w", err)
		}
		fields := make([]model.FieldError, len(verrs))
		for i, fe := range verrs {
			fields[i] = model.FieldError{Field: fe.Field(), Reason: reason(fe)}
		}
		return model.ProvisioningRequest{}, &ValidationError{Fields: fields}
	}

	out := model.ProvisioningRequest{
		Email:          in.Email,
		Password:       in.Password,
		FullName:       in.FullName,
		CompanyName:    in.CompanyName,
		Phone:          in.Phone,
		TaxID:          in.TaxID,
		Address:        in.Address,
		City:           in.City,
		State:          in.State,
		Zip:            in.Zip,
		CommissionRate: model.DefaultCommissionRate,
		BonusNotes:     in.BonusNotes,
		Status:         model.AgentStatusActive,
	}
	if in.CommissionRate != nil {
		out.CommissionRate = *in.CommissionRate
	}
	if in.Status != "" {
		out.Status = in.Status
	}
	return out, nil
}

func normalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, model.AgentStatusActive):
		return model.AgentStatusActive
	case strings.EqualFold(s, model.AgentStatusInactive):
		return model.AgentStatusInactive
	}
	return s
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte", "lte":
		return "must be between 0 and 100"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}
