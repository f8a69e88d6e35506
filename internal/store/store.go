package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
// or does not belong to the requesting user.
var ErrNotFound = errors.New("record not found")

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	Phone        string
	FullName     string
	CreatedAt    time.Time
}

// Message represents a persisted direct message. Records are append-only:
// once written they are never edited or deleted.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Text       string
	CreatedAt  time.Time
}

// TransactionType classifies a wallet ledger entry.
// Credit types add to the balance, every other type subtracts.
type TransactionType string

const (
	TransactionAdd          TransactionType = "add"
	TransactionRefund       TransactionType = "refund"
	TransactionTransfer     TransactionType = "transfer"
	TransactionFoodPurchase TransactionType = "food_purchase"
	TransactionRideFare     TransactionType = "ride_fare"
)

// Transaction is an entry in the append-only wallet ledger.
// Balances are always derived by summing the ledger, never stored.
type Transaction struct {
	ID          int64
	UserID      int64
	Type        TransactionType
	Amount      float64
	Description string
	CreatedAt   time.Time
}

// OrderStatus tracks a food order through its lifecycle.
type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
)

// Order represents a food order.
type Order struct {
	ID             int64
	Ref            string // public UUID reference
	UserID         int64
	RestaurantName string
	TotalPrice     float64
	Status         OrderStatus
	CreatedAt      time.Time
}

// RideStatus tracks a ride through its lifecycle.
type RideStatus string

const (
	RideStatusDriverAssigned RideStatus = "driver_assigned"
	RideStatusCompleted      RideStatus = "completed"
)

// Ride represents a ride-hailing trip.
type Ride struct {
	ID          int64
	Ref         string // public UUID reference
	UserID      int64
	Pickup      string
	Destination string
	Status      RideStatus
	Fare        float64
	CreatedAt   time.Time
}

// Address represents a saved delivery address.
type Address struct {
	ID        int64
	UserID    int64
	Title     string
	Address   string
	IsDefault bool
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsersExcept lists all users except the given one, for contact pickers.
	ListUsersExcept(ctx context.Context, userID int64) ([]*User, error)

	// UpdateProfile replaces the profile fields of a user.
	UpdateProfile(ctx context.Context, userID int64, email, phone, fullName string) error

	// UpdatePasswordHash replaces a user's password hash.
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}

// MessageStore handles direct-message persistence. This is the durable side
// of the realtime gateway: every send attempt produces exactly one record,
// whether or not live delivery succeeded.
type MessageStore interface {
	// SaveMessage appends a message record.
	SaveMessage(ctx context.Context, senderID, receiverID int64, text string) (*Message, error)

	// ListConversation returns all messages between two users in either
	// direction, ascending by creation time. Insertion order (the row id)
	// breaks ties and is the authoritative order for history reconstruction.
	ListConversation(ctx context.Context, userA, userB int64) ([]*Message, error)
}

// WalletStore handles the wallet ledger.
type WalletStore interface {
	// AppendTransaction appends a ledger entry.
	AppendTransaction(ctx context.Context, userID int64, txType TransactionType, amount float64, description string) (*Transaction, error)

	// Balance derives the current balance from the ledger.
	Balance(ctx context.Context, userID int64) (float64, error)

	// ListTransactions returns the newest ledger entries, up to limit.
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error)
}

// OrderStore handles food orders.
type OrderStore interface {
	// CreateOrder records a confirmed food order.
	CreateOrder(ctx context.Context, userID int64, restaurantName string, totalPrice float64) (*Order, error)

	// ListOrders returns the newest orders for a user, up to limit.
	ListOrders(ctx context.Context, userID int64, limit int) ([]*Order, error)

	// CountOrders counts all orders for a user.
	CountOrders(ctx context.Context, userID int64) (int64, error)
}

// RideStore handles rides.
type RideStore interface {
	// CreateRide records a new ride with a driver assigned.
	CreateRide(ctx context.Context, userID int64, pickup, destination string, fare float64) (*Ride, error)

	// GetRide retrieves a ride owned by the user.
	GetRide(ctx context.Context, id, userID int64) (*Ride, error)

	// CompleteRide marks a ride completed.
	CompleteRide(ctx context.Context, id, userID int64) error

	// ListRides returns the newest rides for a user, up to limit.
	ListRides(ctx context.Context, userID int64, limit int) ([]*Ride, error)

	// CountCompletedRides counts completed rides for a user.
	CountCompletedRides(ctx context.Context, userID int64) (int64, error)
}

// AddressStore handles saved addresses.
type AddressStore interface {
	// CreateAddress saves a new address. Marking it default clears the
	// default flag on the user's other addresses.
	CreateAddress(ctx context.Context, userID int64, title, address string, isDefault bool) (*Address, error)

	// UpdateAddress replaces an address owned by the user.
	UpdateAddress(ctx context.Context, id, userID int64, title, address string, isDefault bool) error

	// DeleteAddress removes an address owned by the user.
	DeleteAddress(ctx context.Context, id, userID int64) error

	// ListAddresses returns the user's addresses, default first, then newest.
	ListAddresses(ctx context.Context, userID int64) ([]*Address, error)
}

// Store is the full persistence contract of the backend.
type Store interface {
	UserStore
	MessageStore
	WalletStore
	OrderStore
	RideStore
	AddressStore

	// Close releases the underlying database resources.
	Close() error
}
