// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The blank import below registers the sqlite3 driver with database/sql.
// The driver's init() function does this automatically when the package
// is loaded — we never call anything from it directly.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// nextPosition is the ordering key for a written row. Listing sorts by
// position descending, so the latest create or update comes first and a
// delete leaves the others in place.
const nextPosition = `(SELECT COALESCE(MAX(position), 0) + 1 FROM users)`

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.StoragePath, creates the users
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// A single connection serializes writers. The MAX(position)
	// subqueries rely on that.
	db.SetMaxOpenConns(1)

	// Schema:
	//   id           — UUID assigned by CreateUser
	//   phone_number — NULL when absent
	//   address      — NULL when absent
	//   position     — ordering key, see nextPosition
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT    PRIMARY KEY,
			name         TEXT    NOT NULL,
			email        TEXT    NOT NULL,
			age          INTEGER NOT NULL,
			gender       TEXT    NOT NULL CHECK (gender IN ('male', 'female')),
			phone_number TEXT,
			address      TEXT,
			position     INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateUser inserts a new row at the front of the ordering.
//
// Prepared statements use placeholders (?). The database driver sends
// the query and the values separately, so user input is never parsed as
// SQL. Nil *string fields are sent as NULL.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateUser(user types.User) (types.User, error) {
	stmt, err := s.Db.Prepare(`
		INSERT INTO users (id, name, email, age, gender, phone_number, address, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ` + nextPosition + `)
	`)
	if err != nil {
		return types.User{}, fmt.Errorf("CreateUser: prepare: %w", err)
	}
	defer stmt.Close()

	user.ID = uuid.NewString()

	_, err = stmt.Exec(user.ID, user.Name, user.Email, user.Age,
		string(user.Gender), user.PhoneNumber, user.Address)
	if err != nil {
		return types.User{}, fmt.Errorf("CreateUser: exec: %w", err)
	}

	return user, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetUserByID fetches exactly one row matched by primary key.
// sql.ErrNoRows surfaces from Scan and is translated to storage.ErrNotFound.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetUserByID(id string) (types.User, error) {
	stmt, err := s.Db.Prepare(`
		SELECT id, name, email, age, gender, phone_number, address
		FROM users WHERE id = ? LIMIT 1
	`)
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByID: prepare: %w", err)
	}
	defer stmt.Close()

	user, err := scanUser(stmt.QueryRow(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, fmt.Errorf("GetUserByID %s: %w", id, storage.ErrNotFound)
		}
		return types.User{}, fmt.Errorf("GetUserByID: scan: %w", err)
	}

	return user, nil
}

// GetUsers returns all rows, most recently written first.
func (s *SQLite) GetUsers() ([]types.User, error) {
	stmt, err := s.Db.Prepare(`
		SELECT id, name, email, age, gender, phone_number, address
		FROM users ORDER BY position DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("GetUsers: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("GetUsers: query: %w", err)
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	users := make([]types.User, 0)

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("GetUsers: scan row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetUsers: rows iteration: %w", err)
	}

	return users, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateUserByID replaces a user's data and moves it to the front.
// Zero rows affected means the id does not exist.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) UpdateUserByID(id string, user types.User) (types.User, error) {
	stmt, err := s.Db.Prepare(`
		UPDATE users
		SET name = ?, email = ?, age = ?, gender = ?, phone_number = ?, address = ?,
		    position = ` + nextPosition + `
		WHERE id = ?
	`)
	if err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID: prepare: %w", err)
	}
	defer stmt.Close()

	// Argument order matches the ? order in the SQL.
	result, err := stmt.Exec(user.Name, user.Email, user.Age,
		string(user.Gender), user.PhoneNumber, user.Address, id)
	if err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID: exec: %w", err)
	}

	if err := requireRow(result, "UpdateUserByID", id); err != nil {
		return types.User{}, err
	}

	user.ID = id
	return user, nil
}

// DeleteUserByID removes a row by primary key.
func (s *SQLite) DeleteUserByID(id string) error {
	stmt, err := s.Db.Prepare("DELETE FROM users WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteUserByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("DeleteUserByID: exec: %w", err)
	}

	return requireRow(result, "DeleteUserByID", id)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads the columns in SELECT order. NULL text columns become
// nil pointers.
func scanUser(row rowScanner) (types.User, error) {
	var (
		user    types.User
		gender  string
		phone   sql.NullString
		address sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Age,
		&gender,
		&phone,
		&address,
	); err != nil {
		return types.User{}, err
	}

	user.Gender = types.Gender(gender)
	if phone.Valid {
		user.PhoneNumber = &phone.String
	}
	if address.Valid {
		user.Address = &address.String
	}

	return user, nil
}

func requireRow(result sql.Result, op, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, storage.ErrNotFound)
	}
	return nil
}
