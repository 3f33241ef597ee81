// Package store persists named tuple bindings in a SQLite database so a
// session's values outlive the process. Values are kept in their dist wire
// form, so loading a binding decodes it into the caller's symbol table.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/tuploid/vm"
	"github.com/chazu/tuploid/vm/dist"
)

// ErrBindingNotFound indicates the requested binding doesn't exist.
var ErrBindingNotFound = errors.New("binding not found")

// Binding summarizes one stored value.
type Binding struct {
	Name  string
	Shape string
}

// Store is a SQLite-backed table of named values.
type Store struct {
	db      *sql.DB
	path    string
	symbols *vm.SymbolTable
	log     commonlog.Logger
	mu      sync.Mutex
}

// Open opens (creating if needed) the database at path. Strings and names
// are read from and interned into st.
func Open(path string, st *vm.SymbolTable) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps an in-memory database alive and consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS bindings (
		name  TEXT PRIMARY KEY,
		shape TEXT NOT NULL,
		data  BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	s := &Store{db: db, path: path, symbols: st, log: commonlog.GetLogger("tuploid.store")}
	s.log.Infof("opened store %s", path)
	return s, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save persists v under name, replacing any earlier binding.
func (s *Store) Save(name string, v vm.Value) error {
	data, err := dist.MarshalValue(s.symbols, v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	shape := shapeOf(v)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO bindings (name, shape, data) VALUES (?, ?, ?)",
		name, shape, data,
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	s.log.Debugf("saved %s: %s (%d bytes)", name, shape, len(data))
	return nil
}

// Load retrieves the binding stored under name.
func (s *Store) Load(name string) (vm.Value, error) {
	data, err := s.Raw(name)
	if err != nil {
		return vm.Value{}, err
	}
	v, err := dist.UnmarshalValue(s.symbols, data)
	if err != nil {
		return vm.Value{}, fmt.Errorf("decoding %s: %w", name, err)
	}
	return v, nil
}

// Raw returns the stored wire bytes for name without decoding them.
func (s *Store) Raw(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow("SELECT data FROM bindings WHERE name = ?", name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrBindingNotFound, name)
		}
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}
	return data, nil
}

// Delete removes the binding stored under name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM bindings WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrBindingNotFound, name)
	}
	s.log.Infof("deleted %s", name)
	return nil
}

// List returns every stored binding ordered by name.
func (s *Store) List() ([]Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name, shape FROM bindings ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing bindings: %w", err)
	}
	defer rows.Close()

	var out []Binding
	for rows.Next() {
		var b Binding
		if err := rows.Scan(&b.Name, &b.Shape); err != nil {
			return nil, fmt.Errorf("scanning binding: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// shapeOf describes a value's type for listings. Dynamic tuples report
// their declared descriptor plus the number of appended slots.
func shapeOf(v vm.Value) string {
	if v.IsTuple() && v.Tuple().ExtraLen() > 0 {
		return fmt.Sprintf("%s+%d", v.Tuple().Type(), v.Tuple().ExtraLen())
	}
	return vm.TypeOf(v).String()
}
