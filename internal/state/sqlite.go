package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/teamcutter/sml/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS instances (
    uuid         TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    type         TEXT NOT NULL,
    path         TEXT NOT NULL,
    mc_version   TEXT NOT NULL DEFAULT '',
    loader       TEXT NOT NULL DEFAULT '',
    installed_at TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'installed'
);
`

// SQLiteState records instances. An install is written as pending before any
// file is created and flipped to installed once setup completes; pending rows
// left behind by an interrupted run are cleaned up on open. After every
// change the installed set is mirrored to a JSON file.
type SQLiteState struct {
	mu           sync.RWMutex
	db           *sql.DB
	manifestPath string
	logger       *log.Logger
}

type instanceList struct {
	Instances []*domain.Instance `json:"instances"`
}

func NewSQLite(dbPath, manifestPath string, logger *log.Logger) (*SQLiteState, error) {
	if logger == nil {
		logger = log.Default()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteState{
		db:           db,
		manifestPath: manifestPath,
		logger:       logger,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	if err := s.recover(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to recover: %w", err)
	}

	return s, nil
}

// migrate imports the JSON instance list into an empty database.
func (s *SQLiteState) migrate() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM instances").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	data, err := os.ReadFile(s.manifestPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read instance list: %w", err)
	}

	var list instanceList
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to parse instance list: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, inst := range list.Instances {
		if err := insertInstance(tx, inst, "installed"); err != nil {
			return fmt.Errorf("failed to insert %s: %w", inst.Name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteState) recover() error {
	rows, err := s.db.Query("SELECT uuid, name, path FROM instances WHERE status = 'pending'")
	if err != nil {
		return err
	}

	type pendingRow struct {
		uuid, name, path string
	}
	var pending []pendingRow

	for rows.Next() {
		var p pendingRow
		if err := rows.Scan(&p.uuid, &p.name, &p.path); err != nil {
			rows.Close()
			return err
		}
		pending = append(pending, p)
	}
	rows.Close()

	for _, p := range pending {
		s.logger.Warn("removing interrupted install", "instance", p.name, "uuid", domain.ShortID(p.uuid))

		if p.path != "" {
			os.RemoveAll(p.path)
		}

		if _, err := s.db.Exec("DELETE FROM instances WHERE uuid = ?", p.uuid); err != nil {
			return fmt.Errorf("failed to delete pending instance %s: %w", p.name, err)
		}
	}

	return nil
}

func insertInstance(tx *sql.Tx, inst *domain.Instance, status string) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO instances
		(uuid, name, type, path, mc_version, loader, installed_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.UUID, inst.Name, string(inst.Type), inst.Path, inst.MCVersion, inst.Loader,
		inst.InstalledAt.Format(time.RFC3339), status)
	return err
}

func (s *SQLiteState) write(inst *domain.Instance, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertInstance(tx, inst, status); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return s.exportJSON()
}

// BeginInstall records inst as pending.
func (s *SQLiteState) BeginInstall(inst *domain.Instance) error {
	return s.write(inst, "pending")
}

func (s *SQLiteState) Add(inst *domain.Instance) error {
	return s.write(inst, "installed")
}

func (s *SQLiteState) Get(uuid string) (*domain.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT uuid, name, type, path, mc_version, loader, installed_at
		FROM instances WHERE uuid = ? AND status = 'installed'`, uuid)

	inst, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("instance %s: %w", domain.ShortID(uuid), domain.ErrNotFound)
	}
	return inst, err
}

func (s *SQLiteState) List() ([]*domain.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list()
}

func (s *SQLiteState) list() ([]*domain.Instance, error) {
	rows, err := s.db.Query(`
		SELECT uuid, name, type, path, mc_version, loader, installed_at
		FROM instances WHERE status = 'installed'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].InstalledAt.Before(out[j].InstalledAt)
	})
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstance(row scanner) (*domain.Instance, error) {
	var inst domain.Instance
	var typ, installedAt string

	if err := row.Scan(&inst.UUID, &inst.Name, &typ, &inst.Path, &inst.MCVersion, &inst.Loader, &installedAt); err != nil {
		return nil, err
	}
	inst.Type = domain.InstanceType(typ)
	inst.InstalledAt, _ = time.Parse(time.RFC3339, installedAt)
	return &inst, nil
}

func (s *SQLiteState) Remove(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM instances WHERE uuid = ?", uuid); err != nil {
		return err
	}
	return s.exportJSON()
}

func (s *SQLiteState) Rename(uuid, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE instances SET name = ? WHERE uuid = ? AND status = 'installed'", name, uuid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("instance %s: %w", domain.ShortID(uuid), domain.ErrNotFound)
	}
	return s.exportJSON()
}

func (s *SQLiteState) exportJSON() error {
	if s.manifestPath == "" {
		return nil
	}

	instances, err := s.list()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(instanceList{Instances: instances}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.manifestPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(s.manifestPath, data, 0644)
}

func (s *SQLiteState) Close() error {
	return s.db.Close()
}
