// Package search maintains a SQLite-backed index over the script
// catalog so browsing and querying never re-read every script.
package search

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scriptdeck/scriptdeck/internal/catalog"
	"github.com/scriptdeck/scriptdeck/internal/schema"
	_ "modernc.org/sqlite"
)

// State enumerates the index lifecycle.
type State int

const (
	Idle State = iota
	Indexing
	Ready
	Failed
)

// Status is the shared index status. Values compare with ==, so a
// poller can detect transitions by equality; Generation changes on
// every rebuild, so two Ready states with equal counts still differ.
type Status struct {
	State      State
	Count      int
	Generation string
	Message    string
}

// Result is one row of a query.
type Result struct {
	ScriptPath  string
	DisplayName string
	Description string
	Tags        []string
	SchemaError string
}

// FieldDetail is one declared field of an indexed script.
type FieldDetail struct {
	Name     string
	Prompt   string
	Kind     string
	Required bool
}

// Details is a single record plus its ordered fields.
type Details struct {
	DisplayName string
	Description string
	Tags        []string
	Fields      []FieldDetail
	SchemaError string
}

// Index is the persisted search index. It is safe to share; the
// status cell is the only mutable state and is lock-guarded.
type Index struct {
	dbPath string

	mu     sync.Mutex
	status Status
}

// New creates an Index persisted at dbPath.
func New(dbPath string) *Index {
	return &Index{dbPath: dbPath, status: Status{State: Idle}}
}

// Status returns the current status snapshot.
func (ix *Index) Status() Status {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.status
}

func (ix *Index) setStatus(s Status) {
	ix.mu.Lock()
	ix.status = s
	ix.mu.Unlock()
}

// StartRebuild launches one background rebuild. It never blocks; the
// caller observes progress by polling Status. A panicking worker
// leaves the status in Failed rather than wedging readers.
func (ix *Index) StartRebuild(root string) {
	ix.setStatus(Status{State: Indexing})
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ix.setStatus(Status{State: Failed, Message: fmt.Sprintf("index rebuild panicked: %v", r)})
			}
		}()
		if _, err := ix.Rebuild(root); err != nil {
			ix.setStatus(Status{State: Failed, Message: err.Error()})
		}
	}()
}

// Rebuild recursively catalogs root, resolves every script's schema,
// and replaces both tables inside one transaction so queries only
// ever see a complete generation. On success the Ready status carries
// the script count and the new generation id.
func (ix *Index) Rebuild(root string) (int, error) {
	scripts, err := catalog.ListScriptsRecursive(root)
	if err != nil {
		return 0, fmt.Errorf("list scripts: %w", err)
	}

	db, err := ix.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin rebuild transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM script_fields`); err != nil {
		return 0, fmt.Errorf("clear fields: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM script_index`); err != nil {
		return 0, fmt.Errorf("clear scripts: %w", err)
	}

	generation := uuid.New().String()
	indexedAt := time.Now().UnixMilli()

	for _, script := range scripts {
		rec := resolveRecord(root, script)
		tagsRaw := strings.Join(rec.Tags, ",")

		_, err := tx.Exec(
			`INSERT INTO script_index (script_path, display_name, description, tags, search_blob, schema_error, generation, indexed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ScriptPath, rec.DisplayName, nullable(rec.Description), nullable(tagsRaw),
			rec.blob, nullable(rec.SchemaError), generation, indexedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert script %s: %w", rec.ScriptPath, err)
		}

		for order, field := range rec.Fields {
			_, err := tx.Exec(
				`INSERT INTO script_fields (script_path, field_order, name, prompt, kind, required)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				rec.ScriptPath, order, field.Name, nullable(field.Prompt), field.Kind, boolInt(field.Required),
			)
			if err != nil {
				return 0, fmt.Errorf("insert field %s/%s: %w", rec.ScriptPath, field.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rebuild: %w", err)
	}
	ix.setStatus(Status{State: Ready, Count: len(scripts), Generation: generation})
	return len(scripts), nil
}

// Query tokenizes text on whitespace and returns records whose blob
// contains every token as a literal substring. Empty input returns
// everything, ordered by display name then path.
func (ix *Index) Query(text string) ([]Result, error) {
	db, err := ix.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tokens := splitQuery(text)
	q := strings.Builder{}
	q.WriteString(`SELECT script_path, display_name, description, tags, schema_error FROM script_index`)
	var args []interface{}
	for i, token := range tokens {
		if i == 0 {
			q.WriteString(` WHERE `)
		} else {
			q.WriteString(` AND `)
		}
		q.WriteString(`search_blob LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(token)+"%")
	}
	q.WriteString(` ORDER BY display_name COLLATE NOCASE, script_path COLLATE NOCASE`)

	rows, err := db.Query(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var description, tags, schemaErr sql.NullString
		if err := rows.Scan(&r.ScriptPath, &r.DisplayName, &description, &tags, &schemaErr); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Description = description.String
		r.Tags = parseTags(tags.String)
		r.SchemaError = schemaErr.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// Details fetches one record and its ordered fields. A missing path
// yields (nil, nil).
func (ix *Index) Details(scriptPath string) (*Details, error) {
	db, err := ix.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var d Details
	var description, tags, schemaErr sql.NullString
	err = db.QueryRow(
		`SELECT display_name, description, tags, schema_error FROM script_index WHERE script_path = ?`,
		scriptPath,
	).Scan(&d.DisplayName, &description, &tags, &schemaErr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query details: %w", err)
	}
	d.Description = description.String
	d.Tags = parseTags(tags.String)
	d.SchemaError = schemaErr.String

	rows, err := db.Query(
		`SELECT name, prompt, kind, required FROM script_fields WHERE script_path = ? ORDER BY field_order`,
		scriptPath,
	)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f FieldDetail
		var prompt sql.NullString
		var required int
		if err := rows.Scan(&f.Name, &prompt, &f.Kind, &required); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		f.Prompt = prompt.String
		f.Required = required != 0
		d.Fields = append(d.Fields, f)
	}
	return &d, rows.Err()
}

// open creates the database file on first use and applies the schema.
// Connections are per call; WAL keeps readers usable while the
// rebuild transaction is open.
func (ix *Index) open() (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(ix.dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	dsn := ix.dbPath + "?_pragma=busy_timeout(500)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS script_index (
		script_path TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		description TEXT,
		tags TEXT,
		search_blob TEXT NOT NULL,
		schema_error TEXT,
		generation TEXT NOT NULL,
		indexed_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS script_fields (
		script_path TEXT NOT NULL,
		field_order INTEGER NOT NULL,
		name TEXT NOT NULL,
		prompt TEXT,
		kind TEXT,
		required INTEGER NOT NULL,
		FOREIGN KEY (script_path) REFERENCES script_index(script_path) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_script_search ON script_index(search_blob);
	CREATE INDEX IF NOT EXISTS idx_script_fields ON script_fields(script_path);
	`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("migrate index db: %w", err)
	}
	return nil
}

// record is one script's resolved index row before insertion.
type record struct {
	ScriptPath  string
	DisplayName string
	Description string
	Tags        []string
	Fields      []FieldDetail
	SchemaError string
	blob        string
}

func resolveRecord(root, script string) record {
	rel, err := filepath.Rel(root, script)
	if err != nil {
		rel = script
	}
	rec := record{ScriptPath: rel, DisplayName: filepath.Base(script)}

	contents, err := os.ReadFile(script)
	if err != nil {
		rec.SchemaError = err.Error()
	} else if s, err := schema.Resolve(string(contents)); err != nil {
		rec.SchemaError = err.Error()
	} else {
		rec.DisplayName = s.Name
		rec.Description = s.Description
		rec.Tags = s.Tags
		for _, f := range s.Fields {
			rec.Fields = append(rec.Fields, FieldDetail{
				Name:     f.Name,
				Prompt:   f.Prompt,
				Kind:     f.Type,
				Required: f.Required,
			})
		}
	}

	rec.blob = buildBlob(rec)
	return rec
}

// buildBlob concatenates every searchable string, lowercased.
func buildBlob(rec record) string {
	parts := []string{rec.ScriptPath, rec.DisplayName}
	if rec.Description != "" {
		parts = append(parts, rec.Description)
	}
	parts = append(parts, rec.Tags...)
	for _, f := range rec.Fields {
		parts = append(parts, f.Name)
		if f.Prompt != "" {
			parts = append(parts, f.Prompt)
		}
		parts = append(parts, f.Kind)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func splitQuery(text string) []string {
	var tokens []string
	for _, token := range strings.Fields(text) {
		tokens = append(tokens, strings.ToLower(token))
	}
	return tokens
}

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(token string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(token)
}

func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(tag); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
