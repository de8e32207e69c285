package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/idlekit/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all persistent store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.idlekit/data/idlekit.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".idlekit", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "idlekit.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SettingsStore returns the settings store.
func (s *Store) SettingsStore() driven.SettingsStore {
	return &settingsStore{store: s}
}

// ListStore returns the title list store.
func (s *Store) ListStore() driven.ListStore {
	return &listStore{store: s}
}

// CredentialsStore returns the credentials store.
func (s *Store) CredentialsStore() driven.CredentialsStore {
	return &credentialsStore{store: s}
}

// OrderStore returns the achievement order store.
func (s *Store) OrderStore() driven.AchievementOrderStore {
	return &orderStore{store: s}
}

// SchedulerStore returns the scheduler store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate applies every *.up.sql newer than the recorded version,
// each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Settings Store ====================

type settingsStore struct {
	store *Store
}

var _ driven.SettingsStore = (*settingsStore)(nil)

func (s *settingsStore) Get(ctx context.Context, identity, key string) (string, bool, error) {
	var value string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE identity = ? AND key = ?", identity, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *settingsStore) Set(ctx context.Context, identity, key, value string) error {
	if identity == "" || key == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO settings (identity, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(identity, key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, identity, key, value)
	if err != nil {
		return fmt.Errorf("saving setting %s: %w", key, err)
	}
	return nil
}

func (s *settingsStore) Delete(ctx context.Context, identity, key string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM settings WHERE identity = ? AND key = ?", identity, key)
	if err != nil {
		return fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return nil
}

func (s *settingsStore) All(ctx context.Context, identity string) (map[string]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT key, value FROM settings WHERE identity = ?", identity)
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}
	return out, nil
}

// ==================== List Store ====================

type listStore struct {
	store *Store
}

var _ driven.ListStore = (*listStore)(nil)

func (s *listStore) GetList(ctx context.Context, identity string, name domain.ListName) ([]domain.Title, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT title_id, title_name FROM title_lists
		WHERE identity = ? AND list_name = ?
		ORDER BY position
	`, identity, string(name))
	if err != nil {
		return nil, fmt.Errorf("querying list %s: %w", name, err)
	}
	defer rows.Close()

	var titles []domain.Title //nolint:prealloc // size unknown from query
	for rows.Next() {
		var t domain.Title
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning list entry: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating list %s: %w", name, err)
	}
	return titles, nil
}

// SaveList replaces the list in one transaction. Repeated title IDs keep
// their first position.
func (s *listStore) SaveList(ctx context.Context, identity string, name domain.ListName, titles []domain.Title) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM title_lists WHERE identity = ? AND list_name = ?", identity, string(name)); err != nil {
		return fmt.Errorf("clearing list %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO title_lists (identity, list_name, position, title_id, title_name)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, t := range titles {
		if _, err := stmt.ExecContext(ctx, identity, string(name), i, t.ID, t.Name); err != nil {
			return fmt.Errorf("saving list entry %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing list %s: %w", name, err)
	}
	return nil
}

// ==================== Credentials Store ====================

type credentialsStore struct {
	store *Store
}

var _ driven.CredentialsStore = (*credentialsStore)(nil)

func (s *credentialsStore) Save(ctx context.Context, creds domain.SessionCredentials) error {
	if creds.Identity == "" {
		return domain.ErrInvalidInput
	}
	updated := creds.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO credentials (identity, session_id, login_secure, machine_auth, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			session_id = excluded.session_id,
			login_secure = excluded.login_secure,
			machine_auth = excluded.machine_auth,
			updated_at = excluded.updated_at
	`, creds.Identity, creds.SessionID, creds.LoginSecure, nullString(creds.MachineAuth),
		updated.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Get returns nil and no error if no credentials are stored.
func (s *credentialsStore) Get(ctx context.Context, identity string) (*domain.SessionCredentials, error) {
	var creds domain.SessionCredentials
	var machineAuth sql.NullString
	var updated string

	err := s.store.db.QueryRowContext(ctx, `
		SELECT identity, session_id, login_secure, machine_auth, updated_at
		FROM credentials WHERE identity = ?
	`, identity).Scan(&creds.Identity, &creds.SessionID, &creds.LoginSecure, &machineAuth, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting credentials: %w", err)
	}

	if machineAuth.Valid {
		creds.MachineAuth = machineAuth.String
	}
	creds.UpdatedAt = parseNullableTime(sql.NullString{String: updated, Valid: true})
	return &creds, nil
}

func (s *credentialsStore) Delete(ctx context.Context, identity string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM credentials WHERE identity = ?", identity)
	if err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

// ==================== Order Store ====================

type orderStore struct {
	store *Store
}

var _ driven.AchievementOrderStore = (*orderStore)(nil)

// GetOrder returns nil and no error if the title has no custom order.
func (s *orderStore) GetOrder(ctx context.Context, identity string, titleID int) (*domain.AchievementOrder, error) {
	var entriesJSON string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT entries FROM achievement_orders WHERE identity = ? AND title_id = ?",
		identity, titleID).Scan(&entriesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting achievement order: %w", err)
	}

	order := &domain.AchievementOrder{TitleID: titleID}
	if err := json.Unmarshal([]byte(entriesJSON), &order.Entries); err != nil {
		return nil, fmt.Errorf("unmarshaling order entries: %w", err)
	}
	return order, nil
}

func (s *orderStore) SaveOrder(ctx context.Context, identity string, order domain.AchievementOrder) error {
	if order.TitleID <= 0 {
		return domain.ErrInvalidInput
	}
	entries := order.Entries
	if entries == nil {
		entries = []domain.OrderEntry{}
	}
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling order entries: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO achievement_orders (identity, title_id, entries)
		VALUES (?, ?, ?)
		ON CONFLICT(identity, title_id) DO UPDATE SET entries = excluded.entries
	`, identity, order.TitleID, string(entriesJSON))
	if err != nil {
		return fmt.Errorf("saving achievement order: %w", err)
	}
	return nil
}
