package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/tahakaan/superapp-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedUser(t *testing.T, st *SQLiteStore, username string) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), username, "hash")
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return user
}

func TestCreateUserRejectsDuplicate(t *testing.T) {
	st := newTestStore(t)

	seedUser(t, st, "alice")
	if _, err := st.CreateUser(context.Background(), "alice", "other"); err == nil {
		t.Fatal("duplicate username must fail")
	}
}

func TestGetUserNotFound(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.GetUserByID(context.Background(), 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.GetUserByUsername(context.Background(), "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	if err := st.UpdateProfile(ctx, alice.ID, "a@example.com", "+90 555 000 00 00", "Alice A."); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	got, err := st.GetUserByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != "a@example.com" || got.Phone != "+90 555 000 00 00" || got.FullName != "Alice A." {
		t.Fatalf("profile not updated: %+v", got)
	}
}

func TestListUsersExcept(t *testing.T) {
	st := newTestStore(t)

	alice := seedUser(t, st, "alice")
	seedUser(t, st, "bob")
	seedUser(t, st, "carol")

	users, err := st.ListUsersExcept(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.ID == alice.ID {
			t.Fatal("caller must be excluded from the contact list")
		}
	}
}

func TestConversationOrderingBothDirections(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	carol := seedUser(t, st, "carol")

	texts := []struct {
		from, to int64
		text     string
	}{
		{alice.ID, bob.ID, "hi"},
		{bob.ID, alice.ID, "hey"},
		{alice.ID, bob.ID, "lunch?"},
		{alice.ID, carol.ID, "unrelated"},
	}
	for _, m := range texts {
		if _, err := st.SaveMessage(ctx, m.from, m.to, m.text); err != nil {
			t.Fatalf("save message %q: %v", m.text, err)
		}
	}

	// Same conversation regardless of which participant asks.
	for _, pair := range [][2]int64{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		msgs, err := st.ListConversation(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("list conversation: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(msgs))
		}
		want := []string{"hi", "hey", "lunch?"}
		for i, msg := range msgs {
			if msg.Text != want[i] {
				t.Fatalf("position %d: got %q, want %q", i, msg.Text, want[i])
			}
		}
		if msgs[0].SenderID != alice.ID || msgs[1].SenderID != bob.ID {
			t.Fatal("sender attribution lost")
		}
	}
}

func TestBalanceDerivedFromLedger(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")

	balance, err := st.Balance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("empty ledger must read 0, got %v", balance)
	}

	entries := []struct {
		txType store.TransactionType
		amount float64
	}{
		{store.TransactionAdd, 100},
		{store.TransactionFoodPurchase, 25.5},
		{store.TransactionRefund, 5},
		{store.TransactionTransfer, 30},
		{store.TransactionRideFare, 10},
	}
	for _, e := range entries {
		if _, err := st.AppendTransaction(ctx, alice.ID, e.txType, e.amount, "t"); err != nil {
			t.Fatalf("append %s: %v", e.txType, err)
		}
	}

	balance, err = st.Balance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 39.5 {
		t.Fatalf("expected 39.5, got %v", balance)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	for _, desc := range []string{"first", "second", "third"} {
		if _, err := st.AppendTransaction(ctx, alice.ID, store.TransactionAdd, 10, desc); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	txs, err := st.ListTransactions(ctx, alice.ID, 2)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("limit not applied, got %d entries", len(txs))
	}
	if txs[0].Description != "third" || txs[1].Description != "second" {
		t.Fatalf("unexpected order: %q, %q", txs[0].Description, txs[1].Description)
	}
}

func TestRideLifecycleAndCounts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	ride, err := st.CreateRide(ctx, alice.ID, "Kadikoy", "Besiktas", 50)
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	if ride.Ref == "" {
		t.Fatal("ride must get a reference")
	}
	if ride.Status != store.RideStatusDriverAssigned {
		t.Fatalf("new ride status: %s", ride.Status)
	}

	// Another user can't see or complete it.
	if _, err := st.GetRide(ctx, ride.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign ride, got %v", err)
	}
	if err := st.CompleteRide(ctx, ride.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound completing foreign ride, got %v", err)
	}

	if err := st.CompleteRide(ctx, ride.ID, alice.ID); err != nil {
		t.Fatalf("complete ride: %v", err)
	}

	got, err := st.GetRide(ctx, ride.ID, alice.ID)
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	if got.Status != store.RideStatusCompleted {
		t.Fatalf("ride not completed: %s", got.Status)
	}

	count, err := st.CountCompletedRides(ctx, alice.ID)
	if err != nil {
		t.Fatalf("count rides: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 completed ride, got %d", count)
	}
}

func TestOrdersScopedToUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	order, err := st.CreateOrder(ctx, alice.ID, "Kebapci Osman", 120)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Ref == "" {
		t.Fatal("order must get a reference")
	}

	mine, err := st.ListOrders(ctx, alice.ID, 10)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 order, got %d", len(mine))
	}

	theirs, err := st.ListOrders(ctx, bob.ID, 10)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(theirs) != 0 {
		t.Fatalf("orders leaked across users: %d", len(theirs))
	}

	count, err := st.CountOrders(ctx, alice.ID)
	if err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 order counted, got %d", count)
	}
}

func TestAddressDefaultIsExclusive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")

	home, err := st.CreateAddress(ctx, alice.ID, "Home", "Moda Cad. 1", true)
	if err != nil {
		t.Fatalf("create address: %v", err)
	}
	if !home.IsDefault {
		t.Fatal("first address must keep its default flag")
	}

	work, err := st.CreateAddress(ctx, alice.ID, "Work", "Levent Plaza", true)
	if err != nil {
		t.Fatalf("create address: %v", err)
	}

	addrs, err := st.ListAddresses(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list addresses: %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addrs))
	}
	if addrs[0].ID != work.ID || !addrs[0].IsDefault {
		t.Fatal("new default must be listed first")
	}
	if addrs[1].IsDefault {
		t.Fatal("previous default must be cleared")
	}
}

func TestAddressOwnerScoping(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	addr, err := st.CreateAddress(ctx, alice.ID, "Home", "Moda Cad. 1", false)
	if err != nil {
		t.Fatalf("create address: %v", err)
	}

	if err := st.UpdateAddress(ctx, addr.ID, bob.ID, "Stolen", "x", false); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating foreign address, got %v", err)
	}
	if err := st.DeleteAddress(ctx, addr.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting foreign address, got %v", err)
	}

	if err := st.UpdateAddress(ctx, addr.ID, alice.ID, "Home", "Moda Cad. 2", false); err != nil {
		t.Fatalf("update address: %v", err)
	}
	if err := st.DeleteAddress(ctx, addr.ID, alice.ID); err != nil {
		t.Fatalf("delete address: %v", err)
	}

	addrs, err := st.ListAddresses(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list addresses: %v", err)
	}
	if len(addrs) != 0 {
		t.Fatalf("address not deleted, %d left", len(addrs))
	}
}
