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

func setupUserHandler(t *testing.T) (*UserHandler, *sql.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	return NewUserHandler(testutil.NewTestUserService(t, db)), db
}

func TestUserHandler_Me(t *testing.T) {
	t.Run("returns the caller's account", func(t *testing.T) {
		handler, db := setupUserHandler(t)

		user := testutil.NewUser().WithBalance(250_000).Build(t, db)

		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set("X-Actor-ID", user.ID)
		w := httptest.NewRecorder()

		withActor(handler.Me).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.User
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.ID != user.ID {
			t.Errorf("Expected user %s, got %s", user.ID, response.ID)
		}
		if response.Balance != 250_000 {
			t.Errorf("Expected balance 250000, got %d", response.Balance)
		}
	})

	t.Run("returns 404 for an unknown actor", func(t *testing.T) {
		handler, _ := setupUserHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set("X-Actor-ID", testutil.MakeID())
		w := httptest.NewRecorder()

		withActor(handler.Me).ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestUserHandler_UpdateSettlementDetails(t *testing.T) {
	t.Run("stores the payout endpoints", func(t *testing.T) {
		handler, db := setupUserHandler(t)

		user := testutil.NewUser().Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/users/me/settlement",
			request.SettlementDetailsRequest{
				AccountName:   "Ada Obi",
				AccountNumber: "0123456789",
				BankName:      "First Bank",
			}, nil)
		req.Header.Set("X-Actor-ID", user.ID)
		w := httptest.NewRecorder()

		withActor(handler.UpdateSettlementDetails).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.User
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.BankDetails == nil || response.BankDetails.AccountNumber != "0123456789" {
			t.Errorf("Expected bank details stored, got %+v", response.BankDetails)
		}
	})

	t.Run("rejects an empty update", func(t *testing.T) {
		handler, db := setupUserHandler(t)

		user := testutil.NewUser().Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/users/me/settlement",
			request.SettlementDetailsRequest{}, nil)
		req.Header.Set("X-Actor-ID", user.ID)
		w := httptest.NewRecorder()

		withActor(handler.UpdateSettlementDetails).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}
