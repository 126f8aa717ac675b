package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_crate_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_item_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_alias_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_reexport_id START 1;`,

		`CREATE TABLE IF NOT EXISTS crates (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			fetched_at TIMESTAMP,
			processed_at TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(name, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crates_name ON crates (name)`,

		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER REFERENCES crates(id),
			def_id TEXT NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			kind TEXT NOT NULL,
			content_hash TEXT,
			stability TEXT,
			deprecated BOOLEAN NOT NULL DEFAULT FALSE,
			cfg TEXT,
			doc_links TEXT,
			fragment_names TEXT,
			UNIQUE(crate_id, def_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_crate ON items (crate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_path ON items (path)`,
		`CREATE INDEX IF NOT EXISTS idx_items_hash ON items (content_hash)`,

		`CREATE TABLE IF NOT EXISTS aliases (
			id INTEGER PRIMARY KEY,
			item_id INTEGER NOT NULL REFERENCES items(id),
			alias TEXT NOT NULL,
			UNIQUE(item_id, alias)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_aliases_alias ON aliases (alias)`,

		`CREATE TABLE IF NOT EXISTS reexports (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER NOT NULL REFERENCES crates(id),
			local_prefix TEXT NOT NULL,
			source_crate TEXT NOT NULL,
			source_prefix TEXT NOT NULL,
			UNIQUE(crate_id, local_prefix)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reexports_crate ON reexports (crate_id)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Crate operations ---

type Crate struct {
	ID          int
	Name        string
	Version     string
	FetchedAt   *time.Time
	ProcessedAt *time.Time
	LastUsedAt  time.Time
}

func (db *DB) UpsertCrate(name, version string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, fetched_at, processed_at, last_used_at FROM crates WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt)

	if err == nil {
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking crate: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO crates (id, name, version) VALUES (nextval('seq_crate_id'), ?, ?)`,
		name, version,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting crate: %w", err)
	}

	var id int
	if err := db.conn.QueryRow("SELECT currval('seq_crate_id')").Scan(&id); err != nil {
		return nil, fmt.Errorf("getting crate id: %w", err)
	}

	now := time.Now()
	return &Crate{ID: id, Name: name, Version: version, LastUsedAt: now}, nil
}

func (db *DB) MarkCrateFetched(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET fetched_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) MarkCrateProcessed(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET processed_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) TouchCrate(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) GetCrate(name, version string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, fetched_at, processed_at, last_used_at FROM crates WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetLatestCrate returns the most recently processed crate with the given name.
func (db *DB) GetLatestCrate(name string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, fetched_at, processed_at, last_used_at
		 FROM crates WHERE name = ? AND processed_at IS NOT NULL
		 ORDER BY processed_at DESC LIMIT 1`, name,
	).Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) ListCrates() ([]Crate, error) {
	rows, err := db.conn.Query(`SELECT id, name, version, fetched_at, processed_at, last_used_at FROM crates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crates []Crate
	for rows.Next() {
		var c Crate
		if err := rows.Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt); err != nil {
			return nil, err
		}
		crates = append(crates, c)
	}
	return crates, nil
}

// --- Item operations ---

type Item struct {
	ID      int
	CrateID int
	// DefID is the item's stable identifier, rendered as crate:index.
	DefID       string
	Name        string
	Path        string
	Kind        string
	ContentHash string
	// Stability is "stable <version>", "unstable <feature>", or empty when
	// the item is untracked.
	Stability  string
	Deprecated bool
	// Cfg is the rendered doc(cfg) predicate, empty when unconditional.
	Cfg           string
	DocLinks      string // JSON-encoded map[string]string
	FragmentNames string // JSON-encoded []string
}

func (db *DB) InsertItem(item *Item) error {
	_, err := db.conn.Exec(
		`INSERT INTO items (id, crate_id, def_id, name, path, kind, content_hash, stability, deprecated, cfg, doc_links, fragment_names)
		 VALUES (nextval('seq_item_id'), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.CrateID, item.DefID, item.Name, item.Path, item.Kind, item.ContentHash, item.Stability, item.Deprecated, item.Cfg, item.DocLinks, item.FragmentNames,
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}

	return db.conn.QueryRow(
		`SELECT id FROM items WHERE crate_id = ? AND def_id = ?`,
		item.CrateID, item.DefID,
	).Scan(&item.ID)
}

const itemColumns = `id, crate_id, def_id, name, path, kind, content_hash, stability, deprecated, cfg, doc_links, fragment_names`

func scanItem(row *sql.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.CrateID, &it.DefID, &it.Name, &it.Path, &it.Kind, &it.ContentHash, &it.Stability, &it.Deprecated, &it.Cfg, &it.DocLinks, &it.FragmentNames)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (db *DB) GetItem(itemID int) (*Item, error) {
	return scanItem(db.conn.QueryRow(
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID,
	))
}

func (db *DB) GetItemByPath(crateID int, path string) (*Item, error) {
	return scanItem(db.conn.QueryRow(
		`SELECT `+itemColumns+` FROM items WHERE crate_id = ? AND path = ?`,
		crateID, path,
	))
}

func (db *DB) DeleteItemsByCrate(crateID int) error {
	if _, err := db.conn.Exec(
		`DELETE FROM aliases WHERE item_id IN (SELECT id FROM items WHERE crate_id = ?)`, crateID,
	); err != nil {
		return err
	}
	_, err := db.conn.Exec(`DELETE FROM items WHERE crate_id = ?`, crateID)
	return err
}

// --- Alias operations ---

func (db *DB) InsertAlias(itemID int, alias string) error {
	_, err := db.conn.Exec(
		`INSERT INTO aliases (id, item_id, alias) VALUES (nextval('seq_alias_id'), ?, ?)
		 ON CONFLICT (item_id, alias) DO NOTHING`,
		itemID, alias,
	)
	return err
}

// --- Search ---

type SearchResult struct {
	ItemID  int
	CrateID int
	Name    string
	Path    string
	Kind    string
	// Via is "path", "name", or "alias" depending on what matched.
	Via string
}

// SearchItems finds items whose path contains the query, whose name matches
// it exactly, or that declared it as a doc alias. Exact alias and name
// matches sort before substring path matches.
func (db *DB) SearchItems(query string, limit int, crateIDs []int) ([]SearchResult, error) {
	var crateFilter string
	var params []interface{}
	params = append(params, query, query, "%"+query+"%")
	if len(crateIDs) > 0 {
		placeholders := make([]string, len(crateIDs))
		for i, id := range crateIDs {
			placeholders[i] = "?"
			params = append(params, id)
		}
		crateFilter = fmt.Sprintf(` AND i.crate_id IN (%s)`, strings.Join(placeholders, ","))
	}
	params = append(params, limit)

	q := fmt.Sprintf(`
		SELECT i.id, i.crate_id, i.name, i.path, i.kind,
		       CASE WHEN a.alias IS NOT NULL THEN 'alias'
		            WHEN i.name = ? THEN 'name'
		            ELSE 'path' END as via
		FROM items i
		LEFT JOIN aliases a ON a.item_id = i.id AND a.alias = ?
		WHERE (a.alias IS NOT NULL OR i.path LIKE ?)%s
		ORDER BY CASE via WHEN 'alias' THEN 0 WHEN 'name' THEN 1 ELSE 2 END, length(i.path)
		LIMIT ?`, crateFilter)

	rows, err := db.conn.Query(q, params...)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ItemID, &r.CrateID, &r.Name, &r.Path, &r.Kind, &r.Via); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

// GetCratesForItems returns a map from item ID to Crate for the given item IDs in a single query.
func (db *DB) GetCratesForItems(itemIDs []int) (map[int]*Crate, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(itemIDs))
	params := make([]interface{}, len(itemIDs))
	for i, id := range itemIDs {
		placeholders[i] = "?"
		params[i] = id
	}
	query := fmt.Sprintf(`
		SELECT i.id, c.id, c.name, c.version, c.fetched_at, c.processed_at, c.last_used_at
		FROM items i JOIN crates c ON c.id = i.crate_id
		WHERE i.id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int]*Crate, len(itemIDs))
	for rows.Next() {
		var itemID int
		var c Crate
		if err := rows.Scan(&itemID, &c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt); err != nil {
			return nil, err
		}
		result[itemID] = &c
	}
	return result, nil
}

func (db *DB) GetCrateIDsByNames(names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(names))
	params := make([]interface{}, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		params[i] = n
	}
	query := fmt.Sprintf(`SELECT id FROM crates WHERE name IN (%s)`, strings.Join(placeholders, ","))
	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetIndexedVersions returns name→version for processed crates matching the given names.
// If multiple versions exist for the same name, the one with the latest processed_at wins.
func (db *DB) GetIndexedVersions(names []string) (map[string]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(names))
	params := make([]interface{}, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		params[i] = n
	}
	query := fmt.Sprintf(`
		SELECT name, version
		FROM (
			SELECT name, version, ROW_NUMBER() OVER (PARTITION BY name ORDER BY processed_at DESC) as rn
			FROM crates
			WHERE name IN (%s) AND processed_at IS NOT NULL
		)
		WHERE rn = 1`, strings.Join(placeholders, ","))

	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("getting indexed versions: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var name, version string
		if err := rows.Scan(&name, &version); err != nil {
			return nil, err
		}
		result[name] = version
	}
	return result, nil
}

func (db *DB) CountItems(crateID int) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM items WHERE crate_id = ?`, crateID).Scan(&count)
	return count, err
}

// --- Reexport operations ---

func (db *DB) InsertReexport(crateID int, localPrefix, sourceCrate, sourcePrefix string) error {
	_, err := db.conn.Exec(
		`INSERT INTO reexports (id, crate_id, local_prefix, source_crate, source_prefix)
		 VALUES (nextval('seq_reexport_id'), ?, ?, ?, ?)
		 ON CONFLICT (crate_id, local_prefix) DO UPDATE SET source_crate = ?, source_prefix = ?`,
		crateID, localPrefix, sourceCrate, sourcePrefix, sourceCrate, sourcePrefix,
	)
	return err
}

func (db *DB) DeleteReexportsByCrate(crateID int) error {
	_, err := db.conn.Exec(`DELETE FROM reexports WHERE crate_id = ?`, crateID)
	return err
}

// ResolveReexport checks if the given path matches a re-export in this crate.
// Tries exact match first, then longest prefix match (for glob re-exports).
// Returns the source crate name and resolved source path.
func (db *DB) ResolveReexport(crateID int, path string) (sourceCrate, sourcePath string, found bool) {
	var localPrefix, srcCrate, srcPrefix string
	err := db.conn.QueryRow(
		`SELECT local_prefix, source_crate, source_prefix FROM reexports
		 WHERE crate_id = ? AND (local_prefix = ? OR ? LIKE local_prefix || '::%')
		 ORDER BY length(local_prefix) DESC LIMIT 1`,
		crateID, path, path,
	).Scan(&localPrefix, &srcCrate, &srcPrefix)
	if err != nil {
		return "", "", false
	}

	if localPrefix == path {
		return srcCrate, srcPrefix, true
	}
	suffix := path[len(localPrefix):]
	return srcCrate, srcPrefix + suffix, true
}
