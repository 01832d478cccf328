//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/repository"
)

const (
	adminEmail    = "e2e-admin@tourbase.local"
	adminPassword = "e2e-admin-password"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

type tourResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type reviewResponse struct {
	ID     string `json:"id"`
	TourID string `json:"tour_id"`
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
}

type bookingResponse struct {
	ID     string  `json:"id"`
	TourID string  `json:"tour_id"`
	UserID string  `json:"user_id"`
	Price  float64 `json:"price"`
	Paid   bool    `json:"paid"`
}

type checkoutResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	TourID string `json:"tour_id"`
}

type listResponse struct {
	Results int               `json:"results"`
	Data    []json.RawMessage `json:"data"`
}

type viewStatsResponse struct {
	TourID     string `json:"tour_id"`
	TotalViews int64  `json:"total_views"`
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("TOURBASE_BASE_URL", "http://localhost:8080")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	bootstrapAdmin(t, dbURL)
	adminToken := login(t, baseURL, adminEmail, adminPassword)

	tour := createTour(t, baseURL, adminToken)

	fetched := getTour(t, baseURL, tour.ID)
	if fetched.Slug != tour.Slug {
		t.Fatalf("expected slug %q, got %q", tour.Slug, fetched.Slug)
	}
	bySlug := getTourBySlug(t, baseURL, tour.Slug)
	if bySlug.ID != tour.ID {
		t.Fatalf("slug lookup returned tour %q, want %q", bySlug.ID, tour.ID)
	}

	userEmail := fmt.Sprintf("e2e-user-%d@tourbase.local", time.Now().UnixNano())
	userToken, userID := signup(t, baseURL, userEmail, "traveler-password")

	review := createReview(t, baseURL, userToken, tour.ID)
	if review.UserID != userID {
		t.Fatalf("review author %q, want %q", review.UserID, userID)
	}

	session := checkoutSession(t, baseURL, userToken, tour.ID)
	if session.URL == "" {
		t.Fatalf("checkout session missing url")
	}

	booking := createBooking(t, baseURL, userToken, tour.ID)
	if booking.UserID != userID {
		t.Fatalf("booking owner %q, want %q", booking.UserID, userID)
	}

	assertBookingListed(t, baseURL, userToken, booking.ID)
	waitForViewStats(t, baseURL, adminToken, tour.ID)
}

// TestE2EStaleTokenRejected validates that tokens issued before a password
// change stop working.
func TestE2EStaleTokenRejected(t *testing.T) {
	baseURL := envOrDefault("TOURBASE_BASE_URL", "http://localhost:8080")
	if os.Getenv("DATABASE_URL") == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	email := fmt.Sprintf("e2e-stale-%d@tourbase.local", time.Now().UnixNano())
	oldToken, _ := signup(t, baseURL, email, "original-password")

	// Token watermark has second granularity; the change must land in a
	// later second than the signup.
	time.Sleep(1100 * time.Millisecond)

	payload := map[string]any{
		"current_password":     "original-password",
		"new_password":         "replacement-password",
		"new_password_confirm": "replacement-password",
	}
	var refreshed authResponse
	status := doJSON(t, http.MethodPatch, baseURL+"/api/v1/users/update-password", oldToken, payload, &refreshed)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from password update, got %d", status)
	}
	if refreshed.Token == "" {
		t.Fatalf("password update did not issue a new token")
	}

	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/users/me", oldToken, nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for pre-change token, got %d", status)
	}

	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/users/me", refreshed.Token, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for refreshed token, got %d", status)
	}
}

// TestE2ERateLimiting validates that credential endpoints return 429 with
// rate limit headers after the burst is exhausted.
func TestE2ERateLimiting(t *testing.T) {
	baseURL := envOrDefault("TOURBASE_BASE_URL", "http://localhost:8080")

	client := &http.Client{Timeout: 10 * time.Second}
	payload, _ := json.Marshal(map[string]string{
		"email":    "nobody@tourbase.local",
		"password": "wrong-password",
	})

	var rateLimited bool
	var lastResp *http.Response

	// Auth burst is small by default; 20 rapid attempts should trip it.
	for i := 0; i < 20; i++ {
		req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/users/login", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			rateLimited = true
			lastResp = resp
			break
		}
		resp.Body.Close()
	}

	if !rateLimited {
		t.Fatalf("expected 429 after login burst, but never hit rate limit")
	}
	defer lastResp.Body.Close()

	if lastResp.Header.Get("X-RateLimit-Limit") == "" {
		t.Error("missing X-RateLimit-Limit header on 429 response")
	}
	if remaining := lastResp.Header.Get("X-RateLimit-Remaining"); remaining != "0" {
		t.Errorf("expected X-RateLimit-Remaining=0, got %s", remaining)
	}
	if lastResp.Header.Get("Retry-After") == "" {
		t.Log("Retry-After header not present (optional but recommended)")
	}

	var errResp map[string]any
	if err := json.NewDecoder(lastResp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode 429 response: %v", err)
	}
	if errResp["error"] == nil {
		t.Error("429 response missing 'error' field")
	}
}

// TestE2ENoSecretsInResponses validates that credentials are never echoed
// back in API responses.
// TestE2ESecretTourHiddenFromPublic verifies that a secret tour is
// invisible on the public detail endpoints but readable by its managers.
func TestE2ESecretTourHiddenFromPublic(t *testing.T) {
	baseURL := envOrDefault("TOURBASE_BASE_URL", "http://localhost:8080")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	bootstrapAdmin(t, dbURL)
	adminToken := login(t, baseURL, adminEmail, adminPassword)

	payload := map[string]any{
		"name":           fmt.Sprintf("E2E Hidden Valley %d", time.Now().UnixNano()),
		"duration":       3,
		"max_group_size": 8,
		"difficulty":     "medium",
		"price":          597,
		"summary":        "An unannounced tour for the newsletter crowd",
		"secret":         true,
	}
	var created tourResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/tours", adminToken, payload, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from tour create, got %d", status)
	}

	// Anonymous reads must not find it, by ID or by slug.
	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/tours/"+created.ID, "", nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("anonymous GET by ID: expected 404, got %d", status)
	}
	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/tours/slug/"+created.Slug, "", nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("anonymous GET by slug: expected 404, got %d", status)
	}

	// A freshly signed-up regular user fares no better.
	userToken, _ := signup(t, baseURL,
		fmt.Sprintf("e2e-curious-%d@tourbase.local", time.Now().UnixNano()), "curious-password")
	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/tours/"+created.ID, userToken, nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("user GET by ID: expected 404, got %d", status)
	}

	// The admin still sees it.
	var fetched tourResponse
	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/tours/"+created.ID, adminToken, nil, &fetched)
	if status != http.StatusOK {
		t.Fatalf("admin GET by ID: expected 200, got %d", status)
	}
	if fetched.ID != created.ID {
		t.Errorf("admin fetched wrong tour: %s", fetched.ID)
	}
}

func TestE2ENoSecretsInResponses(t *testing.T) {
	baseURL := envOrDefault("TOURBASE_BASE_URL", "http://localhost:8080")

	client := &http.Client{Timeout: 10 * time.Second}

	password := "super-secret-" + strings.Repeat("x", 16)
	email := fmt.Sprintf("e2e-secrets-%d@tourbase.local", time.Now().UnixNano())

	payload, _ := json.Marshal(map[string]string{
		"name":             "Secrets Check",
		"email":            email,
		"password":         password,
		"password_confirm": password,
	})

	resp, err := client.Post(baseURL+"/api/v1/users/signup", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("signup request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if strings.Contains(string(body), password) {
		t.Error("SECURITY: signup response echoed the password")
	}

	// A bogus bearer token must not appear in the 401 body.
	fakeToken := "eyJ-fake-token-" + strings.Repeat("y", 32)
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/users/me", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+fakeToken)

	resp2, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	if strings.Contains(string(body2), fakeToken) {
		t.Error("SECURITY: error response leaked Authorization header value")
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// bootstrapAdmin ensures an admin account exists, writing directly to the
// database since signup never assigns privileged roles.
func bootstrapAdmin(t *testing.T, dbURL string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer repo.Close()

	if existing, err := repo.GetUserByEmail(ctx, adminEmail); err == nil {
		if existing.Role != model.RoleAdmin {
			if err := repo.UpdateUserRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				t.Fatalf("promote admin: %v", err)
			}
		}
		return
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &model.User{
		ID:           strings.ToLower(ulid.Make().String()),
		Name:         "E2E Admin",
		Email:        adminEmail,
		Role:         model.RoleAdmin,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create admin: %v", err)
	}
}

func signup(t *testing.T, baseURL, email, password string) (token, userID string) {
	t.Helper()

	payload := map[string]string{
		"name":             "E2E Traveler",
		"email":            email,
		"password":         password,
		"password_confirm": password,
	}

	var resp authResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/users/signup", "", payload, &resp)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from signup, got %d", status)
	}
	if resp.Token == "" || resp.User.ID == "" {
		t.Fatalf("signup response missing token or user")
	}
	if resp.User.Role != string(model.RoleUser) {
		t.Fatalf("signup assigned role %q, want %q", resp.User.Role, model.RoleUser)
	}
	return resp.Token, resp.User.ID
}

func login(t *testing.T, baseURL, email, password string) string {
	t.Helper()

	payload := map[string]string{"email": email, "password": password}

	var resp authResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/users/login", "", payload, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d", status)
	}
	if resp.Token == "" {
		t.Fatalf("login response missing token")
	}
	return resp.Token
}

func createTour(t *testing.T, baseURL, token string) tourResponse {
	t.Helper()

	payload := map[string]any{
		"name":           fmt.Sprintf("E2E Forest Hike %d", time.Now().UnixNano()),
		"duration":       5,
		"max_group_size": 12,
		"difficulty":     "easy",
		"price":          397,
		"summary":        "Breathtaking hike through the forest",
	}

	var resp tourResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/tours", token, payload, &resp)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from tour create, got %d", status)
	}
	if resp.ID == "" || resp.Slug == "" {
		t.Fatalf("tour create response missing fields")
	}
	return resp
}

func getTour(t *testing.T, baseURL, id string) tourResponse {
	t.Helper()

	var resp tourResponse
	status := doJSON(t, http.MethodGet, baseURL+"/api/v1/tours/"+id, "", nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from tour get, got %d", status)
	}
	return resp
}

func getTourBySlug(t *testing.T, baseURL, slug string) tourResponse {
	t.Helper()

	var resp tourResponse
	status := doJSON(t, http.MethodGet, baseURL+"/api/v1/tours/slug/"+slug, "", nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from tour slug get, got %d", status)
	}
	return resp
}

func createReview(t *testing.T, baseURL, token, tourID string) reviewResponse {
	t.Helper()

	payload := map[string]any{
		"rating": 5,
		"text":   "Unforgettable views",
	}

	var resp reviewResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/tours/"+tourID+"/reviews", token, payload, &resp)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from review create, got %d", status)
	}
	if resp.ID == "" || resp.TourID != tourID {
		t.Fatalf("review create response missing fields")
	}
	return resp
}

func checkoutSession(t *testing.T, baseURL, token, tourID string) checkoutResponse {
	t.Helper()

	var resp checkoutResponse
	status := doJSON(t, http.MethodGet, baseURL+"/api/v1/bookings/checkout-session/"+tourID, token, nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from checkout session, got %d", status)
	}
	if resp.TourID != tourID {
		t.Fatalf("checkout session for tour %q, want %q", resp.TourID, tourID)
	}
	return resp
}

func createBooking(t *testing.T, baseURL, token, tourID string) bookingResponse {
	t.Helper()

	payload := map[string]any{"tour_id": tourID}

	var resp bookingResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/bookings", token, payload, &resp)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from booking create, got %d", status)
	}
	if resp.ID == "" || resp.TourID != tourID {
		t.Fatalf("booking create response missing fields")
	}
	return resp
}

func assertBookingListed(t *testing.T, baseURL, token, bookingID string) {
	t.Helper()

	var resp listResponse
	status := doJSON(t, http.MethodGet, baseURL+"/api/v1/bookings", token, nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from booking list, got %d", status)
	}

	for _, raw := range resp.Data {
		var b bookingResponse
		if err := json.Unmarshal(raw, &b); err != nil {
			t.Fatalf("decode booking: %v", err)
		}
		if b.ID == bookingID {
			return
		}
	}
	t.Fatalf("booking %s not found in list", bookingID)
}

// waitForViewStats polls the admin view stats endpoint until the earlier
// tour fetches show up through the stream pipeline.
func waitForViewStats(t *testing.T, baseURL, adminToken, tourID string) {
	t.Helper()

	endpoint := baseURL + "/api/v1/tours/" + tourID + "/views"

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		var resp viewStatsResponse
		status := doJSON(t, http.MethodGet, endpoint, adminToken, nil, &resp)
		if status == http.StatusOK && resp.TotalViews >= 1 {
			return
		}
		time.Sleep(250 * time.Millisecond)
	}

	t.Fatalf("view stats did not report tour views in time")
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode
}
