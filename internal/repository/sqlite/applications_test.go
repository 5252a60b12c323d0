package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sakif/jobtrack/internal/apperror"
	"github.com/sakif/jobtrack/internal/model"
)

// newTestDB returns a fresh in-memory database that is closed when the
// test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestOwner inserts a user so applications have a valid user_id.
func createTestOwner(t *testing.T, db *DB, email string) string {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create owner: %v", err)
	}
	return user.ID
}

func createTestApplication(t *testing.T, db *DB, userID, company string, status model.Status) *model.Application {
	t.Helper()
	app := &model.Application{
		Company:     company,
		Position:    "Engineer",
		Status:      status,
		AppliedDate: "2024-03-10",
	}
	if err := db.Create(context.Background(), userID, app); err != nil {
		t.Fatalf("failed to create test application: %v", err)
	}
	return app
}

// =========================================================================
// CREATE / GET
// =========================================================================

func TestApplicationCreate_AssignsIDAndTimestamps(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")

	app := createTestApplication(t, db, owner, "Stripe", model.StatusApplied)

	if app.ID <= 0 {
		t.Errorf("Create() id = %d, want positive", app.ID)
	}
	if app.CreatedAt.IsZero() || app.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestApplicationCreate_IDsIncrease(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")

	first := createTestApplication(t, db, owner, "Stripe", model.StatusApplied)
	second := createTestApplication(t, db, owner, "Linear", model.StatusApplied)

	if second.ID <= first.ID {
		t.Errorf("ids not increasing: %d then %d", first.ID, second.ID)
	}
}

func TestApplicationGetByID_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")

	in := &model.Application{
		Company:     "Écurie",
		Position:    "Data Engineer",
		Status:      model.StatusInterview,
		AppliedDate: "2024-02-29",
		URL:         "https://ecurie.example/jobs/1",
		Notes:       "referral from Sam",
	}
	if err := db.Create(context.Background(), owner, in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.GetByID(context.Background(), owner, in.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Company != in.Company || got.Position != in.Position {
		t.Errorf("got %q/%q, want %q/%q", got.Company, got.Position, in.Company, in.Position)
	}
	if got.Status != model.StatusInterview {
		t.Errorf("Status = %q, want interview", got.Status)
	}
	if got.AppliedDate != "2024-02-29" {
		t.Errorf("AppliedDate = %q, want 2024-02-29", got.AppliedDate)
	}
	if got.URL != in.URL || got.Notes != in.Notes {
		t.Errorf("URL/Notes = %q/%q", got.URL, got.Notes)
	}
}

func TestApplicationGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")

	_, err := db.GetByID(context.Background(), owner, 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestApplicationGetByID_OtherUsersRecordIsNotFound(t *testing.T) {
	db := newTestDB(t)
	alice := createTestOwner(t, db, "alice@example.com")
	bob := createTestOwner(t, db, "bob@example.com")

	app := createTestApplication(t, db, alice, "Stripe", model.StatusApplied)

	_, err := db.GetByID(context.Background(), bob, app.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() as another user: error = %v, want ErrNotFound", err)
	}
}

func TestApplicationCreate_RejectsUnknownStatus(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")

	app := &model.Application{Company: "X", Position: "Y", Status: "ghosted", AppliedDate: "2024-01-01"}
	if err := db.Create(context.Background(), owner, app); err == nil {
		t.Fatal("Create() should reject a status outside the pipeline")
	}
}

// =========================================================================
// LIST
// =========================================================================

func TestApplicationList_Empty(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")

	apps, err := db.List(context.Background(), owner)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if apps == nil || len(apps) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", apps)
	}
}

func TestApplicationList_InsertionOrderAndScoped(t *testing.T) {
	db := newTestDB(t)
	alice := createTestOwner(t, db, "alice@example.com")
	bob := createTestOwner(t, db, "bob@example.com")

	createTestApplication(t, db, alice, "Zeta", model.StatusApplied)
	createTestApplication(t, db, bob, "Other", model.StatusApplied)
	createTestApplication(t, db, alice, "Acme", model.StatusOffer)

	apps, err := db.List(context.Background(), alice)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(apps))
	}
	if apps[0].Company != "Zeta" || apps[1].Company != "Acme" {
		t.Errorf("List() order = [%s %s], want [Zeta Acme]", apps[0].Company, apps[1].Company)
	}
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestApplicationUpdate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")
	app := createTestApplication(t, db, owner, "Stripe", model.StatusApplied)
	created := app.CreatedAt

	app.Status = model.StatusOffer
	app.Notes = "verbal offer"
	if err := db.Update(context.Background(), owner, app); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.GetByID(context.Background(), owner, app.ID)
	if err != nil {
		t.Fatalf("GetByID() after update error = %v", err)
	}
	if got.Status != model.StatusOffer || got.Notes != "verbal offer" {
		t.Errorf("after update: status=%q notes=%q", got.Status, got.Notes)
	}
	if got.ID != app.ID {
		t.Errorf("id changed: %d → %d", app.ID, got.ID)
	}
	if got.UpdatedAt.Before(created) {
		t.Errorf("UpdatedAt %v is before CreatedAt %v", got.UpdatedAt, created)
	}
}

func TestApplicationUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")

	app := &model.Application{ID: 99, Company: "X", Position: "Y", Status: model.StatusApplied, AppliedDate: "2024-01-01"}
	err := db.Update(context.Background(), owner, app)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestApplicationDelete(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")
	app := createTestApplication(t, db, owner, "Stripe", model.StatusApplied)

	if err := db.Delete(context.Background(), owner, app.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.GetByID(context.Background(), owner, app.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete: error = %v, want ErrNotFound", err)
	}

	// The id is never handed out again.
	next := createTestApplication(t, db, owner, "Linear", model.StatusApplied)
	if next.ID == app.ID {
		t.Errorf("deleted id %d was reused", app.ID)
	}
}

func TestApplicationDelete_NotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestOwner(t, db, "a@example.com")

	err := db.Delete(context.Background(), owner, 12345)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DRIVER SELECTION
// =========================================================================

func TestDriverFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"data/jobtrack.db", "sqlite"},
		{":memory:", "sqlite"},
		{"file:jobs.db?cache=shared", "sqlite"},
		{"libsql://jobs-org.turso.io?authToken=abc", "libsql"},
		{"wss://jobs-org.turso.io", "libsql"},
	}
	for _, tt := range tests {
		if got := driverFor(tt.url); got != tt.want {
			t.Errorf("driverFor(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDSNFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"data/jobtrack.db", "data/jobtrack.db?_pragma=foreign_keys(1)"},
		{":memory:", ":memory:?_pragma=foreign_keys(1)"},
		{"file:jobs.db?cache=shared", "file:jobs.db?cache=shared&_pragma=foreign_keys(1)"},
		{"libsql://jobs-org.turso.io?authToken=abc", "libsql://jobs-org.turso.io?authToken=abc"},
	}
	for _, tt := range tests {
		if got := dsnFor(tt.url); got != tt.want {
			t.Errorf("dsnFor(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

// Every pooled connection must enforce foreign keys, not just the first.
func TestForeignKeys_EveryConnection(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	// Hold two connections at once so the pool has to open a second one.
	c1, err := db.conn.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer c1.Close()
	c2, err := db.conn.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer c2.Close()

	for i, c := range []*sql.Conn{c1, c2} {
		var on int
		if err := c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		if on != 1 {
			t.Errorf("conn %d: foreign_keys = %d, want 1", i, on)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}
