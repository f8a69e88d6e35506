package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
)

func doAuthed(t *testing.T, env *testEnv, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, env.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestWalletAddAndBalance(t *testing.T) {
	env := startTestServer(t)
	token, _ := registerUser(t, env, "alice", "password123")

	resp := doAuthed(t, env, http.MethodPost, "/wallet/add", token, AddFundsRequest{Amount: 150})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add funds: unexpected status %d", resp.StatusCode)
	}

	var mutation MutationResponse
	if err := json.NewDecoder(resp.Body).Decode(&mutation); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if mutation.NewBalance != "150.00" {
		t.Fatalf("expected balance 150.00, got %s", mutation.NewBalance)
	}

	resp = doAuthed(t, env, http.MethodGet, "/wallet/balance", token, nil)
	var balance BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance.Balance != "150.00" {
		t.Fatalf("expected balance 150.00, got %s", balance.Balance)
	}
}

func TestWalletTransferInsufficientBalance(t *testing.T) {
	env := startTestServer(t)
	token, _ := registerUser(t, env, "alice", "password123")

	resp := doAuthed(t, env, http.MethodPost, "/wallet/transfer", token, TransferRequest{
		Amount:        100,
		IBAN:          "TR00 0000 0000 0000 0000 0000 00",
		RecipientName: "Someone Else",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWalletTransferDebitsLedger(t *testing.T) {
	env := startTestServer(t)
	token, _ := registerUser(t, env, "alice", "password123")

	doAuthed(t, env, http.MethodPost, "/wallet/add", token, AddFundsRequest{Amount: 200})

	resp := doAuthed(t, env, http.MethodPost, "/wallet/transfer", token, TransferRequest{
		Amount:        75.5,
		IBAN:          "TR00 0000 0000 0000 0000 0000 00",
		RecipientName: "Someone Else",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transfer: unexpected status %d", resp.StatusCode)
	}

	var mutation MutationResponse
	if err := json.NewDecoder(resp.Body).Decode(&mutation); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if mutation.NewBalance != "124.50" {
		t.Fatalf("expected balance 124.50, got %s", mutation.NewBalance)
	}

	resp = doAuthed(t, env, http.MethodGet, "/wallet/transactions", token, nil)
	var txs []TransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(txs))
	}
	// Newest first.
	if txs[0].Type != "transfer" || txs[1].Type != "add" {
		t.Fatalf("unexpected ledger order: %+v", txs)
	}
}

func TestFoodOrderChargesWallet(t *testing.T) {
	env := startTestServer(t)
	token, _ := registerUser(t, env, "alice", "password123")

	doAuthed(t, env, http.MethodPost, "/wallet/add", token, AddFundsRequest{Amount: 300})

	resp := doAuthed(t, env, http.MethodPost, "/food/order", token, CreateOrderRequest{
		Items:      []OrderItem{{ID: 1, Quantity: 1}, {ID: 4, Quantity: 2}},
		TotalPrice: 270,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("order: unexpected status %d", resp.StatusCode)
	}

	var created CreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode order response: %v", err)
	}
	if created.OrderRef == "" || created.NewBalance != "30.00" {
		t.Fatalf("unexpected order response: %+v", created)
	}

	resp = doAuthed(t, env, http.MethodGet, "/food/orders", token, nil)
	var orders []OrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != "confirmed" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestRideLifecycle(t *testing.T) {
	env := startTestServer(t)
	token, _ := registerUser(t, env, "alice", "password123")

	doAuthed(t, env, http.MethodPost, "/wallet/add", token, AddFundsRequest{Amount: 100})

	resp := doAuthed(t, env, http.MethodPost, "/ride/request", token, RequestRideRequest{
		Pickup:        "Kadıköy",
		Destination:   "Beşiktaş",
		EstimatedFare: 60,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ride request: unexpected status %d", resp.StatusCode)
	}

	var ride RequestRideResponse
	if err := json.NewDecoder(resp.Body).Decode(&ride); err != nil {
		t.Fatalf("decode ride response: %v", err)
	}
	if ride.RideID == 0 || ride.Driver.Name == "" {
		t.Fatalf("unexpected ride response: %+v", ride)
	}

	resp = doAuthed(t, env, http.MethodPost, "/ride/complete", token, CompleteRideRequest{RideID: ride.RideID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ride complete: unexpected status %d", resp.StatusCode)
	}

	var completed CompleteRideResponse
	if err := json.NewDecoder(resp.Body).Decode(&completed); err != nil {
		t.Fatalf("decode complete response: %v", err)
	}
	if completed.NewBalance != "40.00" {
		t.Fatalf("expected balance 40.00, got %s", completed.NewBalance)
	}

	resp = doAuthed(t, env, http.MethodGet, "/ride/history", token, nil)
	var rides []RideResponse
	if err := json.NewDecoder(resp.Body).Decode(&rides); err != nil {
		t.Fatalf("decode rides: %v", err)
	}
	if len(rides) != 1 || rides[0].Status != "completed" {
		t.Fatalf("unexpected ride history: %+v", rides)
	}
}
