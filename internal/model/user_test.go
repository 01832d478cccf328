package model

import (
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
		ok    bool
	}{
		{"user", RoleUser, true},
		{"publisher", RolePublisher, true},
		{"admin", RoleAdmin, true},
		{"", RoleUser, false},
		{"superadmin", RoleUser, false},
		{"Admin", RoleUser, false},
	}

	for _, tt := range tests {
		got, ok := ParseRole(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestUser_ChangedPasswordAfter(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no watermark", func(t *testing.T) {
		u := &User{}
		if u.ChangedPasswordAfter(issued) {
			t.Fatal("expected false when passwordChangedAt is unset")
		}
	})

	t.Run("changed before issuance", func(t *testing.T) {
		changed := issued.Add(-time.Hour)
		u := &User{PasswordChangedAt: &changed}
		if u.ChangedPasswordAfter(issued) {
			t.Fatal("expected false when password changed before token issuance")
		}
	})

	t.Run("changed after issuance", func(t *testing.T) {
		changed := issued.Add(time.Hour)
		u := &User{PasswordChangedAt: &changed}
		if !u.ChangedPasswordAfter(issued) {
			t.Fatal("expected true when password changed after token issuance")
		}
	})

	t.Run("sub-second change ignored", func(t *testing.T) {
		// Claims carry Unix seconds, so a change within the same second
		// must not invalidate the token.
		changed := issued.Add(500 * time.Millisecond)
		u := &User{PasswordChangedAt: &changed}
		if u.ChangedPasswordAfter(issued) {
			t.Fatal("expected false for change within the same second")
		}
	})
}

func TestPrincipal_Is(t *testing.T) {
	p := &Principal{UserID: "u1", Role: RolePublisher}

	if !p.Is(RoleAdmin, RolePublisher) {
		t.Fatal("expected publisher to match [admin publisher]")
	}
	if p.Is(RoleAdmin) {
		t.Fatal("expected publisher not to match [admin]")
	}
	if p.Is() {
		t.Fatal("expected empty role set to match nothing")
	}
}
