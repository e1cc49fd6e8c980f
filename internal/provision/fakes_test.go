package provision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edvin/agentdesk/internal/directory"
	"github.com/edvin/agentdesk/internal/model"
	"github.com/edvin/agentdesk/internal/notify"
	"github.com/edvin/agentdesk/internal/store"
)

// faultyDirectory wraps the in-memory directory and injects failures.
type faultyDirectory struct {
	*directory.Memory
	createErr error
	findErr   error
	updateErr error
	deleteErr error
	calls     int
	onCreate  func()
}

func newFaultyDirectory() *faultyDirectory {
	return &faultyDirectory{Memory: directory.NewMemory()}
}

func (d *faultyDirectory) CreateIdentity(ctx context.Context, email, password string, meta model.IdentityMetadata) (*directory.Identity, error) {
	d.calls++
	if d.onCreate != nil {
		d.onCreate()
	}
	if d.createErr != nil {
		return nil, d.createErr
	}
	return d.Memory.CreateIdentity(ctx, email, password, meta)
}

func (d *faultyDirectory) FindIdentityByEmail(ctx context.Context, email string) (*directory.Identity, error) {
	d.calls++
	if d.findErr != nil {
		return nil, d.findErr
	}
	return d.Memory.FindIdentityByEmail(ctx, email)
}

func (d *faultyDirectory) UpdateIdentityMetadata(ctx context.Context, id string, meta model.IdentityMetadata) error {
	d.calls++
	if d.updateErr != nil {
		return d.updateErr
	}
	return d.Memory.UpdateIdentityMetadata(ctx, id, meta)
}

func (d *faultyDirectory) DeleteIdentity(ctx context.Context, id string) error {
	d.calls++
	if d.deleteErr != nil {
		return d.deleteErr
	}
	return d.Memory.DeleteIdentity(ctx, id)
}

// fakeRecords is an agents table keyed by identity, with per-shape failures.
type fakeRecords struct {
	mu        sync.Mutex
	shapeErrs map[model.SchemaMode]error
	rows      map[string]model.AgentRecord
	attempts  []model.SchemaMode
	ctxErrs   []error
	seq       int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		shapeErrs: map[model.SchemaMode]error{},
		rows:      map[string]model.AgentRecord{},
	}
}

func (f *fakeRecords) rejectShape(mode model.SchemaMode) {
	f.shapeErrs[mode] = fmt.Errorf("insert agent (%s shape): %w: column does not exist", mode, store.ErrSchemaShape)
}

func (f *fakeRecords) Insert(ctx context.Context, shape store.Shape, rec *model.AgentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts = append(f.attempts, shape.Mode)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if err := f.shapeErrs[shape.Mode]; err != nil {
		return err
	}

	if existing, ok := f.rows[rec.AuthIdentityID]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		f.seq++
		rec.ID = fmt.Sprintf("agent-%d", f.seq)
		rec.CreatedAt = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	}
	rec.SchemaMode = shape.Mode
	f.rows[rec.AuthIdentityID] = *rec
	return nil
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeSender struct {
	err  error
	sent []notify.Message
}

func (s *fakeSender) Send(_ context.Context, msg notify.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func validRequest() Request {
	return Request{
		Email:       "jane@agency.com",
		Password:    "Initial-Pass-1",
		FullName:    "Jane Doe",
		CompanyName: "Doe Realty",
		Phone:       "555-0100",
		City:        "Austin",
	}
}
