package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tahakaan/superapp-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function instead
// of the default schema. Useful for tests that need custom fixtures.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(full_name, ''), created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(full_name, ''), created_at
		FROM users
		WHERE username = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.Phone,
		&user.FullName,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ListUsersExcept lists all users except the given one.
func (s *SQLiteStore) ListUsersExcept(ctx context.Context, userID int64) ([]*store.User, error) {
	query := `
		SELECT id, username, password_hash, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(full_name, ''), created_at
		FROM users
		WHERE id != ?
		ORDER BY username ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]*store.User, 0)
	for rows.Next() {
		var user store.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Email,
			&user.Phone,
			&user.FullName,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}

// UpdateProfile replaces the profile fields of a user.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID int64, email, phone, fullName string) error {
	query := `
		UPDATE users SET email = ?, phone = ?, full_name = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, email, phone, fullName, userID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// UpdatePasswordHash replaces a user's password hash.
func (s *SQLiteStore) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// ==== MessageStore implementation ====

// SaveMessage appends a message record.
func (s *SQLiteStore) SaveMessage(ctx context.Context, senderID, receiverID int64, text string) (*store.Message, error) {
	query := `
		INSERT INTO messages (sender_id, receiver_id, content)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, senderID, receiverID, text)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	var msg store.Message
	err = s.db.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, content, created_at FROM messages WHERE id = ?`, id,
	).Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query message: %w", err)
	}

	return &msg, nil
}

// ListConversation returns all messages between two users in either direction,
// ascending by creation time with the row id as tiebreaker.
func (s *SQLiteStore) ListConversation(ctx context.Context, userA, userB int64) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userA, userB, userB, userA)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// ==== WalletStore implementation ====

// AppendTransaction appends a ledger entry.
func (s *SQLiteStore) AppendTransaction(ctx context.Context, userID int64, txType store.TransactionType, amount float64, description string) (*store.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, type, amount, description)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, userID, string(txType), amount, description)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	var tx store.Transaction
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, amount, COALESCE(description, ''), created_at FROM transactions WHERE id = ?`, id,
	).Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Description, &tx.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}

	return &tx, nil
}

// Balance derives the current balance from the ledger.
func (s *SQLiteStore) Balance(ctx context.Context, userID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN type IN ('add', 'refund') THEN amount ELSE -amount END
		), 0)
		FROM transactions
		WHERE user_id = ?
	`
	var balance float64
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}

	return balance, nil
}

// ListTransactions returns the newest ledger entries, up to limit.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID int64, limit int) ([]*store.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, COALESCE(description, ''), created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*store.Transaction, 0)
	for rows.Next() {
		var tx store.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, &tx)
	}

	return txs, rows.Err()
}

// ==== OrderStore implementation ====

// CreateOrder records a confirmed food order.
func (s *SQLiteStore) CreateOrder(ctx context.Context, userID int64, restaurantName string, totalPrice float64) (*store.Order, error) {
	query := `
		INSERT INTO orders (ref, user_id, restaurant_name, total_price, status)
		VALUES (?, ?, ?, ?, ?)
	`
	ref := uuid.NewString()
	result, err := s.db.ExecContext(ctx, query, ref, userID, restaurantName, totalPrice, string(store.OrderStatusConfirmed))
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	var order store.Order
	err = s.db.QueryRowContext(ctx,
		`SELECT id, ref, user_id, restaurant_name, total_price, status, created_at FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.Ref, &order.UserID, &order.RestaurantName, &order.TotalPrice, &order.Status, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	return &order, nil
}

// ListOrders returns the newest orders for a user, up to limit.
func (s *SQLiteStore) ListOrders(ctx context.Context, userID int64, limit int) ([]*store.Order, error) {
	query := `
		SELECT id, ref, user_id, restaurant_name, total_price, status, created_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*store.Order, 0)
	for rows.Next() {
		var order store.Order
		if err := rows.Scan(&order.ID, &order.Ref, &order.UserID, &order.RestaurantName, &order.TotalPrice, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, &order)
	}

	return orders, rows.Err()
}

// CountOrders counts all orders for a user.
func (s *SQLiteStore) CountOrders(ctx context.Context, userID int64) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// ==== RideStore implementation ====

// CreateRide records a new ride with a driver assigned.
func (s *SQLiteStore) CreateRide(ctx context.Context, userID int64, pickup, destination string, fare float64) (*store.Ride, error) {
	query := `
		INSERT INTO rides (ref, user_id, pickup, destination, status, fare)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	ref := uuid.NewString()
	result, err := s.db.ExecContext(ctx, query, ref, userID, pickup, destination, string(store.RideStatusDriverAssigned), fare)
	if err != nil {
		return nil, fmt.Errorf("insert ride: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getRideByID(ctx, id)
}

// GetRide retrieves a ride owned by the user.
func (s *SQLiteStore) GetRide(ctx context.Context, id, userID int64) (*store.Ride, error) {
	query := `
		SELECT id, ref, user_id, pickup, destination, status, fare, created_at
		FROM rides
		WHERE id = ? AND user_id = ?
	`
	var ride store.Ride
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&ride.ID, &ride.Ref, &ride.UserID, &ride.Pickup, &ride.Destination, &ride.Status, &ride.Fare, &ride.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query ride: %w", err)
	}

	return &ride, nil
}

func (s *SQLiteStore) getRideByID(ctx context.Context, id int64) (*store.Ride, error) {
	query := `
		SELECT id, ref, user_id, pickup, destination, status, fare, created_at
		FROM rides
		WHERE id = ?
	`
	var ride store.Ride
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&ride.ID, &ride.Ref, &ride.UserID, &ride.Pickup, &ride.Destination, &ride.Status, &ride.Fare, &ride.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("query ride: %w", err)
	}

	return &ride, nil
}

// CompleteRide marks a ride completed.
func (s *SQLiteStore) CompleteRide(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE rides SET status = ? WHERE id = ? AND user_id = ?`,
		string(store.RideStatusCompleted), id, userID,
	)
	if err != nil {
		return fmt.Errorf("complete ride: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// ListRides returns the newest rides for a user, up to limit.
func (s *SQLiteStore) ListRides(ctx context.Context, userID int64, limit int) ([]*store.Ride, error) {
	query := `
		SELECT id, ref, user_id, pickup, destination, status, fare, created_at
		FROM rides
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query rides: %w", err)
	}
	defer rows.Close()

	rides := make([]*store.Ride, 0)
	for rows.Next() {
		var ride store.Ride
		if err := rows.Scan(&ride.ID, &ride.Ref, &ride.UserID, &ride.Pickup, &ride.Destination, &ride.Status, &ride.Fare, &ride.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		rides = append(rides, &ride)
	}

	return rides, rows.Err()
}

// CountCompletedRides counts completed rides for a user.
func (s *SQLiteStore) CountCompletedRides(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rides WHERE user_id = ? AND status = ?`,
		userID, string(store.RideStatusCompleted),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count rides: %w", err)
	}
	return count, nil
}

// ==== AddressStore implementation ====

// CreateAddress saves a new address.
func (s *SQLiteStore) CreateAddress(ctx context.Context, userID int64, title, address string, isDefault bool) (*store.Address, error) {
	if isDefault {
		if _, err := s.db.ExecContext(ctx, `UPDATE addresses SET is_default = 0 WHERE user_id = ?`, userID); err != nil {
			return nil, fmt.Errorf("clear default addresses: %w", err)
		}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO addresses (user_id, title, address, is_default) VALUES (?, ?, ?, ?)`,
		userID, title, address, isDefault,
	)
	if err != nil {
		return nil, fmt.Errorf("insert address: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	var addr store.Address
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, address, is_default, created_at FROM addresses WHERE id = ?`, id,
	).Scan(&addr.ID, &addr.UserID, &addr.Title, &addr.Address, &addr.IsDefault, &addr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}

	return &addr, nil
}

// UpdateAddress replaces an address owned by the user.
func (s *SQLiteStore) UpdateAddress(ctx context.Context, id, userID int64, title, address string, isDefault bool) error {
	if isDefault {
		if _, err := s.db.ExecContext(ctx, `UPDATE addresses SET is_default = 0 WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clear default addresses: %w", err)
		}
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE addresses SET title = ?, address = ?, is_default = ? WHERE id = ? AND user_id = ?`,
		title, address, isDefault, id, userID,
	)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// DeleteAddress removes an address owned by the user.
func (s *SQLiteStore) DeleteAddress(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// ListAddresses returns the user's addresses, default first, then newest.
func (s *SQLiteStore) ListAddresses(ctx context.Context, userID int64) ([]*store.Address, error) {
	query := `
		SELECT id, user_id, title, address, is_default, created_at
		FROM addresses
		WHERE user_id = ?
		ORDER BY is_default DESC, created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	addrs := make([]*store.Address, 0)
	for rows.Next() {
		var addr store.Address
		if err := rows.Scan(&addr.ID, &addr.UserID, &addr.Title, &addr.Address, &addr.IsDefault, &addr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addrs = append(addrs, &addr)
	}

	return addrs, rows.Err()
}
