package agentctl

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/edvin/agentdesk/internal/model"
	"github.com/edvin/agentdesk/internal/provision"
)

// SeedConfig is the YAML batch file read by "agentctl seed".
type SeedConfig struct {
	APIURL string     `yaml:"api_url"`
	Agents []AgentDef `yaml:"agents"`
}

type AgentDef struct {
	Email          string   `yaml:"email"`
	Password       string   `yaml:"password"`
	FullName       string   `yaml:"full_name"`
	CompanyName    string   `yaml:"company_name"`
	Phone          string   `yaml:"phone"`
	TaxID          string   `yaml:"tax_id"`
	Address        string   `yaml:"address"`
	City           string   `yaml:"city"`
	State          string   `yaml:"state"`
	Zip            string   `yaml:"zip"`
	CommissionRate *float64 `yaml:"commission_rate"`
	BonusNotes     string   `yaml:"bonus_notes"`
	Status         string   `yaml:"status"`
}

// Request converts the definition to a provisioning request.
func (d AgentDef) Request() provision.Request {
	return provision.Request{
		Email:          d.Email,
		Password:       d.Password,
		FullName:       d.FullName,
		CompanyName:    d.CompanyName,
		Phone:          d.Phone,
		TaxID:          d.TaxID,
		Address:        d.Address,
		City:           d.City,
		State:          d.State,
		Zip:            d.Zip,
		CommissionRate: d.CommissionRate,
		BonusNotes:     d.BonusNotes,
		Status:         d.Status,
	}
}

// LoadSeedConfig reads and parses a seed file.
func LoadSeedConfig(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Agents) == 0 {
		return nil, fmt.Errorf("parse config: no agents defined")
	}
	return &cfg, nil
}

// Provisioner is satisfied by *Client.
type Provisioner interface {
	Provision(ctx context.Context, in provision.Request) (model.ProvisionResult, error)
}

// SeedOutcome is the result of provisioning one seed entry.
type SeedOutcome struct {
	Email             string
	GeneratedPassword string
	Result            model.ProvisionResult
	Err               error
}

// Failed reports whether the entry was not provisioned.
func (o SeedOutcome) Failed() bool {
	return o.Err != nil || !o.Result.Success
}

// Seed provisions every agent in cfg, one call per entry, and returns the
// per-entry outcomes. Entries without a password get a generated one.
func Seed(ctx context.Context, p Provisioner, cfg *SeedConfig) []SeedOutcome {
	outcomes := make([]SeedOutcome, 0, len(cfg.Agents))
	for _, def := range cfg.Agents {
		out := SeedOutcome{Email: def.Email}
		if def.Password == "" {
			pw, err := generatePassword()
			if err != nil {
				out.Err = err
				outcomes = append(outcomes, out)
				continue
			}
			def.Password = pw
			out.GeneratedPassword = pw
		}
		out.Result, out.Err = p.Provision(ctx, def.Request())
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// PrintSummary writes one row per outcome and returns the number of failures.
func PrintSummary(w io.Writer, outcomes []SeedOutcome) int {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tSTATUS\tSCHEMA\tIDENTITY\tDETAIL")

	failures := 0
	for _, o := range outcomes {
		status, detail := statusLabel(o)
		if o.Failed() {
			failures++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.Email, status, o.Result.SchemaMode, identityLabel(o.Result), detail)
	}
	tw.Flush()
	return failures
}

func statusLabel(o SeedOutcome) (string, string) {
	switch {
	case o.Err != nil:
		return color.New(color.FgRed).Sprint("ERROR"), o.Err.Error()
	case !o.Result.Success:
		return color.New(color.FgRed).Sprint("FAILED"), provision.Describe(o.Result)
	case o.Result.SchemaMode != model.SchemaModeFull:
		return color.New(color.FgYellow).Sprint("DEGRADED"), warningDetail(o)
	case len(o.Result.Warnings) > 0:
		return color.New(color.FgYellow).Sprint("WARN"), warningDetail(o)
	}
	return color.New(color.FgGreen).Sprint("OK"), warningDetail(o)
}

func warningDetail(o SeedOutcome) string {
	detail := ""
	for _, w := range o.Result.Warnings {
		if detail != "" {
			detail += "; "
		}
		detail += w.Kind + ": " + w.Message
	}
	if o.GeneratedPassword != "" && !o.Result.NotificationSent {
		if detail != "" {
			detail += "; "
		}
		detail += "password: " + o.GeneratedPassword
	}
	return detail
}

func identityLabel(r model.ProvisionResult) string {
	switch {
	case r.IdentityID == "":
		return "-"
	case r.IdentityCreated:
		return "created"
	}
	return "existing"
}

func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
