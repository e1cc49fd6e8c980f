package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edvin/agentdesk/internal/model"
)

var (
	// ErrSchemaShape marks an insert rejected because the table does not
	// match the shape's columns or types.
	ErrSchemaShape = errors.New("schema shape mismatch")
	// ErrNotFound is returned when no agent record matches.
	ErrNotFound = errors.New("agent record not found")
)

// shapeCodes are the SQLSTATE codes that indicate a column set or column type
// mismatch rather than bad data or a connectivity problem.
var shapeCodes = map[string]bool{
	"42703": true, // undefined_column
	"42804": true, // datatype_mismatch
	"42846": true, // cannot_coerce
	"22P02": true, // invalid_text_representation
}

// DB defines the database operations used by the store.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AgentStore persists agent records.
type AgentStore struct {
	db DB
}

func NewAgentStore(db DB) *AgentStore {
	return &AgentStore{db: db}
}

// Insert writes rec using the given shape's columns. The statement is an
// upsert keyed on auth_user_id, so re-provisioning an identity refreshes its
// record instead of adding a second one. On success rec.ID, rec.CreatedAt and
// rec.SchemaMode are set.
//
// Errors caused by a column or type mismatch wrap ErrSchemaShape; anything
// else is a plain store error.
func (s *AgentStore) Insert(ctx context.Context, shape Shape, rec *model.AgentRecord) error {
	cols := shape.Columns
	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = columnValue(rec, col)
		if col != "auth_user_id" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	query := fmt.Sprintf(
		`INSERT INTO agents (%s) VALUES (%s)
		 ON CONFLICT (auth_user_id) DO UPDATE SET %s
		 RETURNING id, created_at`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	var id string
	var createdAt time.Time
	if err := s.db.QueryRow(ctx, query, args...).Scan(&id, &createdAt); err != nil {
		if isShapeError(err) {
			return fmt.Errorf("insert agent (%s shape): %w: %w", shape.Mode, ErrSchemaShape, err)
		}
		return fmt.Errorf("insert agent (%s shape): %w", shape.Mode, err)
	}

	rec.ID = id
	rec.CreatedAt = createdAt
	rec.SchemaMode = shape.Mode
	return nil
}

// IsSchemaShape reports whether err is a shape mismatch that a simpler shape
// might avoid.
func IsSchemaShape(err error) bool {
	return errors.Is(err, ErrSchemaShape)
}

func isShapeError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && shapeCodes[pgErr.Code]
}

// agentRow mirrors the agents table as produced by to_jsonb. Columns a
// deployment has not migrated yet are simply absent.
type agentRow struct {
	ID             string    `json:"id"`
	AuthUserID     string    `json:"auth_user_id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	CompanyName    string    `json:"company_name"`
	Phone          *string   `json:"phone"`
	TaxID          *string   `json:"tax_id"`
	Address        *string   `json:"address"`
	City           *string   `json:"city"`
	State          *string   `json:"state"`
	Zip            *string   `json:"zip"`
	CommissionRate *float64  `json:"commission_rate"`
	IsActive       *bool     `json:"is_active"`
	Commission     *string   `json:"commission"`
	Status         *string   `json:"status"`
	BonusNotes     *string   `json:"bonus_notes"`
	MigrationNotes *string   `json:"migration_notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetByID reads an agent record regardless of which columns the deployed
// schema has.
func (s *AgentStore) GetByID(ctx context.Context, id string) (*model.AgentRecord, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT to_jsonb(a) FROM agents a WHERE a.id::text = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get agent %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get agent %s: %w", id, err)
	}

	var row agentRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode agent %s: %w", id, err)
	}

	rec := &model.AgentRecord{
		ID:             row.ID,
		AuthIdentityID: row.AuthUserID,
		FullName:       row.FullName,
		Email:          row.Email,
		CompanyName:    row.CompanyName,
		Phone:          row.Phone,
		TaxID:          row.TaxID,
		Address:        row.Address,
		City:           row.City,
		State:          row.State,
		Zip:            row.Zip,
		CommissionRate: row.CommissionRate,
		IsActive:       row.IsActive,
		Commission:     row.Commission,
		Status:         row.Status,
		BonusNotes:     row.BonusNotes,
		MigrationNotes: row.MigrationNotes,
		SchemaMode:     model.SchemaModeFull,
		CreatedAt:      row.CreatedAt,
	}
	if row.MigrationNotes != nil {
		var notes model.MigrationNotes
		if json.Unmarshal([]byte(*row.MigrationNotes), &notes) == nil && notes.SchemaMode != "" {
			rec.SchemaMode = notes.SchemaMode
		}
	}
	return rec, nil
}
