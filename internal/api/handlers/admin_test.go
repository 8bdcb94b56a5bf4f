package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dev-Arnold/coinBackend/internal/api/request"
	"github.com/Dev-Arnold/coinBackend/internal/model"
	"github.com/Dev-Arnold/coinBackend/internal/testutil"
)

func setupAdminHandler(t *testing.T) (*AdminHandler, *sql.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.TestAuctionConfig()

	return NewAdminHandler(
		testutil.NewTestUserService(t, db),
		testutil.NewTestCoinService(t, db),
		testutil.NewTestAuctionService(t, db, cfg),
		testutil.NewTestCreditService(t, db),
	), db
}

func TestAdminHandler_RegisterUser(t *testing.T) {
	t.Run("creates a participant account", func(t *testing.T) {
		handler, _ := setupAdminHandler(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/users", request.RegisterRequest{
			FirstName: "Ada",
			LastName:  "Obi",
			Email:     "ada@example.com",
			Phone:     "+2348012345678",
		}, nil)
		w := httptest.NewRecorder()

		handler.RegisterUser(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var response model.User
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.CreditScore != 100 {
			t.Errorf("Expected credit score 100, got %d", response.CreditScore)
		}
		if response.ReferralCode == "" {
			t.Error("Expected a generated referral code")
		}
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		handler, _ := setupAdminHandler(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/users", request.RegisterRequest{
			FirstName: "Ada",
			LastName:  "Obi",
			Email:     "not-an-email",
			Phone:     "+2348012345678",
		}, nil)
		w := httptest.NewRecorder()

		handler.RegisterUser(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("returns 404 for an unknown referral code", func(t *testing.T) {
		handler, _ := setupAdminHandler(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/users", request.RegisterRequest{
			FirstName:    "Ben",
			LastName:     "Eze",
			Email:        "ben@example.com",
			Phone:        "+2348098765432",
			ReferralCode: "NOPE99",
		}, nil)
		w := httptest.NewRecorder()

		handler.RegisterUser(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestAdminHandler_AssignCoin(t *testing.T) {
	t.Run("awards a coin to a participant", func(t *testing.T) {
		handler, db := setupAdminHandler(t)

		owner := testutil.NewUser().Build(t, db)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/coins", request.AssignCoinRequest{
			OwnerID: owner.ID,
			Price:   100_000,
			Plan:    "10days",
		}, nil)
		w := httptest.NewRecorder()

		handler.AssignCoin(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var response model.Coin
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.OwnerID != owner.ID {
			t.Errorf("Expected owner %s, got %s", owner.ID, response.OwnerID)
		}
		if !response.IsLocked {
			t.Error("Expected awarded coin to start locked")
		}
	})

	t.Run("rejects an unknown plan", func(t *testing.T) {
		handler, db := setupAdminHandler(t)

		owner := testutil.NewUser().Build(t, db)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/coins", request.AssignCoinRequest{
			OwnerID: owner.ID,
			Price:   100_000,
			Plan:    "7days",
		}, nil)
		w := httptest.NewRecorder()

		handler.AssignCoin(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestAdminHandler_Sessions(t *testing.T) {
	t.Run("open then reopen conflicts", func(t *testing.T) {
		handler, _ := setupAdminHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/session/open", nil)
		w := httptest.NewRecorder()
		handler.OpenSession(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		w = httptest.NewRecorder()
		handler.OpenSession(w, httptest.NewRequest(http.MethodPost, "/api/admin/session/open", nil))
		if w.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		handler, _ := setupAdminHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/session/close", nil)
		w := httptest.NewRecorder()
		handler.CloseSession(w, req)
		if w.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", w.Code)
		}
	})
}

func TestAdminHandler_SetBlocked(t *testing.T) {
	t.Run("unblocks a latched account", func(t *testing.T) {
		handler, db := setupAdminHandler(t)

		user := testutil.NewUser().Blocked().Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPut,
			"/api/admin/users/"+user.ID+"/block", request.BlockRequest{Blocked: false},
			map[string]string{"uuid": user.ID})
		w := httptest.NewRecorder()

		handler.SetBlocked(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d: %s", w.Code, w.Body.String())
		}
	})
}
