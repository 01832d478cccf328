package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/repository"
)

type output struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Creates the first admin account, or promotes an existing account to
// admin. Signup never assigns privileged roles, so a deployment needs
// this once before the admin endpoints are reachable.
func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "Admin account email")
		name        = flag.String("name", "Administrator", "Admin account name")
		password    = flag.String("password", "", "Admin account password (min 8 chars, required when creating)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *email == "" {
		fmt.Fprintln(os.Stderr, "email is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	user, err := ensureAdmin(ctx, repo, *email, *name, *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(model.RoleAdmin),
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.UserID)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func ensureAdmin(ctx context.Context, repo *repository.Repository, email, name, password string) (*model.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	existing, err := repo.GetUserByEmail(ctx, normalized)
	if err == nil {
		if existing.Role == model.RoleAdmin {
			return existing, nil
		}
		if err := repo.UpdateUserRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			return nil, fmt.Errorf("promote user: %w", err)
		}
		existing.Role = model.RoleAdmin
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters to create a new admin")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           strings.ToLower(ulid.Make().String()),
		Name:         name,
		Email:        normalized,
		Role:         model.RoleAdmin,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
