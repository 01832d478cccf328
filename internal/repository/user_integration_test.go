//go:build integration

package repository

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/query"
	"github.com/tourbase/tourbase/internal/testutil"
)

// ============================================================================
// User Repository Integration Tests
// ============================================================================

func TestIntegrationUserRepository_CreateUser(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	email := testutil.UniqueEmail("create")
	user := testutil.NewTestUser(t, email)

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	retrieved, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}

	if retrieved.Email != email {
		t.Errorf("Email mismatch: got %q, want %q", retrieved.Email, email)
	}
	if retrieved.Role != model.RoleUser {
		t.Errorf("Role mismatch: got %q, want %q", retrieved.Role, model.RoleUser)
	}
	if !retrieved.Active {
		t.Error("new user should be active")
	}
}

func TestIntegrationUserRepository_CreateUser_DuplicateEmail(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	email := testutil.UniqueEmail("dup")
	user1 := testutil.NewTestUser(t, email)
	user2 := testutil.NewTestUser(t, email)
	user2.ID = testutil.UniqueID("user")

	if err := repo.CreateUser(ctx, user1); err != nil {
		t.Fatalf("CreateUser (first) failed: %v", err)
	}

	err := repo.CreateUser(ctx, user2)
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got: %v", err)
	}
}

func TestIntegrationUserRepository_GetUserByEmail_NotFound(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	_, err := repo.GetUserByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got: %v", err)
	}
}

func TestIntegrationUserRepository_GetUserByEmailWithPassword(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	email := testutil.UniqueEmail("withpw")
	user := testutil.NewTestUser(t, email)

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	retrieved, err := repo.GetUserByEmailWithPassword(ctx, email)
	if err != nil {
		t.Fatalf("GetUserByEmailWithPassword failed: %v", err)
	}
	if retrieved.PasswordHash == "" {
		t.Error("PasswordHash should be populated")
	}

	// The hash never rides along on the plain lookup.
	plain, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if plain.PasswordHash != "" {
		t.Error("PasswordHash should be empty on plain lookup")
	}
}

func TestIntegrationUserRepository_UpdateUserPassword_ClearsResetTicket(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("pwchange"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	expires := time.Now().UTC().Add(10 * time.Minute)
	if err := repo.SetResetTicket(ctx, user.ID, "ticket-hash", expires); err != nil {
		t.Fatalf("SetResetTicket failed: %v", err)
	}

	changedAt := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdateUserPassword(ctx, user.ID, "new-hash", changedAt); err != nil {
		t.Fatalf("UpdateUserPassword failed: %v", err)
	}

	retrieved, err := repo.GetUserByIDWithPassword(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByIDWithPassword failed: %v", err)
	}
	if retrieved.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash not updated: got %q", retrieved.PasswordHash)
	}
	if retrieved.PasswordChangedAt == nil || !retrieved.PasswordChangedAt.Equal(changedAt) {
		t.Errorf("PasswordChangedAt not set: got %v, want %v", retrieved.PasswordChangedAt, changedAt)
	}
	if retrieved.ResetTokenHash != nil {
		t.Error("ResetTokenHash should be cleared after password change")
	}
}

func TestIntegrationUserRepository_GetUserByResetTicket(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("reset"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	now := time.Now().UTC()
	if err := repo.SetResetTicket(ctx, user.ID, "fresh-hash", now.Add(10*time.Minute)); err != nil {
		t.Fatalf("SetResetTicket failed: %v", err)
	}

	retrieved, err := repo.GetUserByResetTicket(ctx, "fresh-hash", now)
	if err != nil {
		t.Fatalf("GetUserByResetTicket failed: %v", err)
	}
	if retrieved.ID != user.ID {
		t.Errorf("ID mismatch: got %q, want %q", retrieved.ID, user.ID)
	}

	// Expired tickets do not match.
	if err := repo.SetResetTicket(ctx, user.ID, "stale-hash", now.Add(-time.Minute)); err != nil {
		t.Fatalf("SetResetTicket failed: %v", err)
	}
	_, err = repo.GetUserByResetTicket(ctx, "stale-hash", now)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound for expired ticket, got: %v", err)
	}
}

func TestIntegrationUserRepository_DeactivateUser_HiddenFromList(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("deact"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := repo.DeactivateUser(ctx, user.ID); err != nil {
		t.Fatalf("DeactivateUser failed: %v", err)
	}

	docs, err := repo.ListUsers(ctx, query.Build(url.Values{"limit": {"1000"}}))
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	for _, doc := range docs {
		if doc["id"] == user.ID {
			t.Error("deactivated user should not appear in listings")
		}
	}

	// Direct lookup still finds the row.
	retrieved, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if retrieved.Active {
		t.Error("user should be inactive")
	}
}

func TestIntegrationUserRepository_ListUsers_ProjectionAndUnknownField(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("list"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	docs, err := repo.ListUsers(ctx, query.Build(url.Values{"fields": {"id,email"}}))
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(docs) == 0 {
		t.Fatal("expected at least one user")
	}
	if _, ok := docs[0]["email"]; !ok {
		t.Error("projected field email missing")
	}
	if _, ok := docs[0]["role"]; ok {
		t.Error("unprojected field role should be absent")
	}

	// The password hash column is outside the allowlist entirely.
	_, err = repo.ListUsers(ctx, query.Build(url.Values{"fields": {"password_hash"}}))
	if !errors.Is(err, ErrInvalidListQuery) {
		t.Errorf("Expected ErrInvalidListQuery, got: %v", err)
	}
}

func newUserTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetAllSchemas(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schemas: %v", err)
	}

	return ctx, repo
}
