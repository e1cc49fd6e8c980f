package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/agentdesk/internal/metrics"
	"github.com/edvin/agentdesk/internal/model"
	"github.com/edvin/agentdesk/internal/store"
)

// RecordStore persists agent records. *store.AgentStore satisfies this interface.
type RecordStore interface {
	Insert(ctx context.Context, shape store.Shape, rec *model.AgentRecord) error
}

// Degradation labels written into migration notes.
const (
	DegradationLegacy   = "legacy"
	DegradationCritical = "critical"
)

type cascadeStep struct {
	shape       store.Shape
	degradation string
	deferred    func(req model.ProvisioningRequest) map[string]any
}

// Cascade writes an agent record, falling back to older table shapes when the
// live schema rejects the richer ones.
type Cascade struct {
	records RecordStore
	steps   []cascadeStep
	logger  zerolog.Logger
}

func NewCascade(records RecordStore, logger zerolog.Logger) *Cascade {
	return &Cascade{
		records: records,
		steps: []cascadeStep{
			{shape: store.ShapeFull},
			{shape: store.ShapeLegacy, degradation: DegradationLegacy, deferred: typedFields},
			{shape: store.ShapeMinimal, degradation: DegradationCritical, deferred: profileFields},
		},
		logger: logger.With().Str("component", "persistence-cascade").Logger(),
	}
}

// PersistAgentRecord attempts each shape in order. Only schema-shape errors
// move on to the next shape; any other failure, or exhausting the list,
// returns a PersistenceError.
func (c *Cascade) PersistAgentRecord(ctx context.Context, identityID string, req model.ProvisioningRequest) (*model.AgentRecord, error) {
	var failures []model.ShapeFailure
	var lastErr error

	for _, step := range c.steps {
		rec := step.shape.Build(identityID, req)

		if step.degradation != "" {
			notes, err := json.Marshal(model.MigrationNotes{
				SchemaMode:  step.shape.Mode,
				Degradation: step.degradation,
				Failures:    append([]model.ShapeFailure(nil), failures...),
				Deferred:    step.deferred(req),
			})
			if err != nil {
				return nil, newError(model.ErrorKindPersistence, "encode migration notes", err)
			}
			s := string(notes)
			rec.MigrationNotes = &s
		}

		err := c.records.Insert(ctx, step.shape, &rec)
		if err == nil {
			if step.degradation != "" {
				c.logger.Warn().
					Str("identity_id", identityID).
					Str("schema_mode", string(step.shape.Mode)).
					Int("rejected_shapes", len(failures)).
					Msg("agent record persisted with degraded shape")
			} else {
				c.logger.Info().Str("identity_id", identityID).Str("agent_id", rec.ID).Msg("agent record persisted")
			}
			metrics.ObserveSchemaMode(string(step.shape.Mode))
			return &rec, nil
		}

		if !errors.Is(err, store.ErrSchemaShape) {
			return nil, newError(model.ErrorKindPersistence, "persist agent record", err)
		}

		c.logger.Warn().Err(err).Str("schema_mode", string(step.shape.Mode)).Msg("shape rejected by schema")
		failures = append(failures, model.ShapeFailure{Shape: step.shape.Mode, Error: err.Error()})
		lastErr = err
	}

	return nil, newError(model.ErrorKindPersistence,
		fmt.Sprintf("all %d record shapes rejected", len(c.steps)), lastErr)
}

func typedFields(req model.ProvisioningRequest) map[string]any {
	return map[string]any{
		"commission_rate": req.CommissionRate,
		"is_active":       req.IsActive(),
	}
}

func profileFields(req model.ProvisioningRequest) map[string]any {
	out := typedFields(req)
	out["status"] = req.Status
	for k, v := range map[string]string{
		"phone":       req.Phone,
		"tax_id":      req.TaxID,
		"address":     req.Address,
		"city":        req.City,
		"state":       req.State,
		"zip":         req.Zip,
		"bonus_notes": req.BonusNotes,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
