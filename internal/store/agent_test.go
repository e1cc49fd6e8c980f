package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/agentdesk/internal/model"
)

var testRequest = model.ProvisioningRequest{
	Email:          "ada@example.com",
	Password:       "p1",
	FullName:       "Ada Agent",
	CompanyName:    "Acme Freight",
	Phone:          "555-0100",
	City:           "Tulsa",
	CommissionRate: 42.5,
	Status:         model.AgentStatusActive,
}

func insertRow(id string, createdAt time.Time) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*time.Time)) = createdAt
		return nil
	}}
}

func TestAgentStore_Insert_FullShape(t *testing.T) {
	db := &mockDB{}
	s := NewAgentStore(db)
	ctx := context.Background()
	now := time.Now()

	rec := ShapeFull.Build("identity-1", testRequest)

	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO agents (auth_user_id, full_name, email, company_name, phone") &&
			strings.Contains(sql, "commission_rate, is_active, migration_notes)") &&
			strings.Contains(sql, "ON CONFLICT (auth_user_id) DO UPDATE SET full_name = EXCLUDED.full_name") &&
			!strings.Contains(sql, "auth_user_id = EXCLUDED") &&
			strings.Contains(sql, "RETURNING id, created_at")
	}), mock.MatchedBy(func(args []any) bool {
		return len(args) == len(ShapeFull.Columns) && args[0] == "identity-1"
	})).Return(insertRow("agent-1", now))

	err := s.Insert(ctx, ShapeFull, &rec)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", rec.ID)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, model.SchemaModeFull, rec.SchemaMode)
	require.NotNil(t, rec.CommissionRate)
	assert.Equal(t, 42.5, *rec.CommissionRate)
	require.NotNil(t, rec.IsActive)
	assert.True(t, *rec.IsActive)
	db.AssertExpectations(t)
}

func TestAgentStore_Insert_ShapeErrorClassification(t *testing.T) {
	tests := []struct {
		code  string
		shape bool
	}{
		{"42703", true},  // undefined_column
		{"42804", true},  // datatype_mismatch
		{"42846", true},  // cannot_coerce
		{"22P02", true},  // invalid_text_representation
		{"23502", false}, // not_null_violation
		{"42P01", false}, // undefined_table
		{"57P01", false}, // admin_shutdown
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			db := &mockDB{}
			s := NewAgentStore(db)
			ctx := context.Background()

			db.On("QueryRow", ctx, mock.Anything, mock.Anything).
				Return(errRow(&pgconn.PgError{Code: tt.code, Message: "boom"}))

			rec := ShapeLegacy.Build("identity-1", testRequest)
			err := s.Insert(ctx, ShapeLegacy, &rec)
			require.Error(t, err)
			assert.Equal(t, tt.shape, IsSchemaShape(err))
			assert.Contains(t, err.Error(), "legacy shape")
			assert.Empty(t, rec.ID)
		})
	}
}

func TestAgentStore_Insert_ConnectivityErrorIsNotShape(t *testing.T) {
	db := &mockDB{}
	s := NewAgentStore(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.Anything, mock.Anything).Return(errRow(errors.New("connection refused")))

	rec := ShapeMinimal.Build("identity-1", testRequest)
	err := s.Insert(ctx, ShapeMinimal, &rec)
	require.Error(t, err)
	assert.False(t, IsSchemaShape(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestShapes_ColumnsAndBuild(t *testing.T) {
	legacy := ShapeLegacy.Build("identity-1", testRequest)
	assert.Nil(t, legacy.CommissionRate)
	assert.Nil(t, legacy.IsActive)
	require.NotNil(t, legacy.Commission)
	assert.Equal(t, "42.50", *legacy.Commission)
	require.NotNil(t, legacy.Status)
	assert.Equal(t, "Active", *legacy.Status)
	assert.Contains(t, ShapeLegacy.Columns, "commission")
	assert.NotContains(t, ShapeLegacy.Columns, "commission_rate")

	minimal := ShapeMinimal.Build("identity-1", testRequest)
	assert.Equal(t, "identity-1", minimal.AuthIdentityID)
	assert.Equal(t, "Ada Agent", minimal.FullName)
	assert.Nil(t, minimal.Phone)
	assert.Equal(t, []string{"auth_user_id", "full_name", "email", "company_name", "migration_notes"}, ShapeMinimal.Columns)

	full := ShapeFull.Build("identity-1", testRequest)
	require.NotNil(t, full.Phone)
	assert.Equal(t, "555-0100", *full.Phone)
	assert.Nil(t, full.Zip, "empty optional fields are written as NULL")

	// Every column of every shape must map to a record field.
	for _, shape := range []Shape{ShapeFull, ShapeLegacy, ShapeMinimal} {
		for _, col := range shape.Columns {
			assert.NotPanics(t, func() { columnValue(&full, col) }, col)
		}
	}
}

func TestFormatCommission(t *testing.T) {
	assert.Equal(t, "50.00", FormatCommission(50))
	assert.Equal(t, "0.00", FormatCommission(0))
	assert.Equal(t, "12.35", FormatCommission(12.345))
}

func TestAgentStore_GetByID_Full(t *testing.T) {
	db := &mockDB{}
	s := NewAgentStore(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "to_jsonb(a)")
	}), []any{"agent-1"}).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*[]byte)) = []byte(`{"id":"agent-1","auth_user_id":"identity-1","full_name":"Ada Agent",
			"email":"ada@example.com","company_name":"Acme Freight","commission_rate":42.5,"is_active":true,
			"migration_notes":null,"created_at":"2026-10-01T12:00:00.123456+00:00"}`)
		return nil
	}})

	rec, err := s.GetByID(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "identity-1", rec.AuthIdentityID)
	assert.Equal(t, model.SchemaModeFull, rec.SchemaMode)
	require.NotNil(t, rec.CommissionRate)
	assert.Equal(t, 42.5, *rec.CommissionRate)
	assert.Equal(t, 2026, rec.CreatedAt.Year())
}

func TestAgentStore_GetByID_DegradedRecordReportsMode(t *testing.T) {
	db := &mockDB{}
	s := NewAgentStore(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.Anything, []any{"agent-2"}).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*[]byte)) = []byte(`{"id":"agent-2","auth_user_id":"identity-2","full_name":"B","email":"b@example.com",
			"company_name":"C","migration_notes":"{\"schema_mode\":\"minimal\",\"degradation\":\"critical\",\"failures\":[]}",
			"created_at":"2026-10-01T12:00:00Z"}`)
		return nil
	}})

	rec, err := s.GetByID(ctx, "agent-2")
	require.NoError(t, err)
	assert.Equal(t, model.SchemaModeMinimal, rec.SchemaMode)
	assert.Nil(t, rec.CommissionRate)
}

func TestAgentStore_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	s := NewAgentStore(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.Anything, []any{"missing"}).Return(errRow(pgx.ErrNoRows))

	_, err := s.GetByID(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
