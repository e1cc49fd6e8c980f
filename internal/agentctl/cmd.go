package agentctl

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/edvin/agentdesk/internal/provision"
)

type rootOptions struct {
	apiURL  string
	timeout time.Duration
}

// RootCmd returns the agentctl command tree.
func RootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "agentctl",
		Short:         "Provision agent accounts through the provisioning API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := os.Getenv("AGENTCTL_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", defaultURL, "Provisioning API base URL (env AGENTCTL_API_URL)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Per-request timeout")

	cmd.AddCommand(provisionCmd(opts))
	cmd.AddCommand(seedCmd(opts))

	return cmd
}

func provisionCmd(opts *rootOptions) *cobra.Command {
	var (
		in     provision.Request
		rate   float64
		async  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a single agent",
		Long: `Create the agent's identity and business record, then send the welcome message.

Examples:
  agentctl provision --email jane@agency.com --password 'S3cret!' --full-name "Jane Doe" --company "Doe Realty"
  agentctl provision --email jane@agency.com --password 'S3cret!' --full-name "Jane Doe" --company "Doe Realty" --commission-rate 35 --async`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("commission-rate") {
				in.CommissionRate = &rate
			}

			client := NewClient(opts.apiURL, opts.timeout)
			call := client.Provision
			if async {
				call = client.ProvisionAsync
			}

			res, err := call(cmd.Context(), in)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				PrintSummary(cmd.OutOrStdout(), []SeedOutcome{{Email: in.Email, Result: res}})
			}

			if !res.Success {
				return fmt.Errorf("provisioning failed: %s", provision.Describe(res))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "Agent email address (required)")
	f.StringVar(&in.Password, "password", "", "Initial password (required)")
	f.StringVar(&in.FullName, "full-name", "", "Agent full name (required)")
	f.StringVar(&in.CompanyName, "company", "", "Company name (required)")
	f.StringVar(&in.Phone, "phone", "", "Phone number")
	f.StringVar(&in.TaxID, "tax-id", "", "Tax ID")
	f.StringVar(&in.City, "city", "", "City")
	f.StringVar(&in.State, "state", "", "State")
	f.Float64Var(&rate, "commission-rate", 0, "Commission rate 0-100 (default 50)")
	f.StringVar(&in.Status, "status", "", "Active or Inactive (default Active)")
	f.BoolVar(&async, "async", false, "Run as a durable workflow and wait for the result")
	f.BoolVar(&asJSON, "json", false, "Print the raw result as JSON")
	for _, name := range []string{"email", "password", "full-name", "company"} {
		cmd.MarkFlagRequired(name)
	}

	return cmd
}

func seedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision every agent listed in a YAML file",
		Long: `Provision agents in batch, one provisioning call per entry.

Entries without a password get a generated one, printed in the summary when
the welcome message could not be sent.

Examples:
  agentctl seed -f agents.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadSeedConfig(file)
			if err != nil {
				return err
			}

			apiURL := opts.apiURL
			if cfg.APIURL != "" && !cmd.Flags().Changed("api") {
				apiURL = cfg.APIURL
			}

			outcomes := Seed(cmd.Context(), NewClient(apiURL, opts.timeout), cfg)
			failures := PrintSummary(cmd.OutOrStdout(), outcomes)

			fmt.Fprintln(cmd.OutOrStdout())
			if failures > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgRed).Sprintf("%d of %d agents failed", failures, len(outcomes)))
				return fmt.Errorf("%d agents failed", failures)
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgGreen).Sprintf("%d agents provisioned", len(outcomes)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the seed YAML file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}
