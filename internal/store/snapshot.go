package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/panbanda/reach/pkg/analyzer/graph"
	"github.com/panbanda/reach/pkg/models"
)

// ErrNoSnapshot is returned when the database holds no matching snapshot.
var ErrNoSnapshot = errors.New("no snapshot")

// Snapshot is everything persisted for one graph build.
type Snapshot struct {
	ID          int64
	Root        string
	Fingerprint string
	Digest      string
	CreatedAt   time.Time
	Files       []models.SourceFile
	Graph       *models.Graph
	Modules     *models.ModuleGraph
	Cycles      []models.SCCGroup
	Blocks      []models.BlockSpan
	Warnings    []models.Warning
}

// FromResult assembles a snapshot from a build result and its module cycles.
// Block spans are taken from the per-file scans when they were recorded.
func FromResult(res *graph.Result, cycles []models.SCCGroup, at time.Time) *Snapshot {
	snap := &Snapshot{
		Root:        res.Root,
		Fingerprint: res.Fingerprint,
		CreatedAt:   at,
		Files:       res.Files,
		Graph:       res.Graph,
		Modules:     res.Modules,
		Cycles:      cycles,
		Warnings:    res.Warnings,
	}
	for _, f := range res.Files {
		snap.Blocks = append(snap.Blocks, res.Scans[f.Path].Spans...)
	}
	snap.Digest = Digest(snap)
	return snap
}

// Digest hashes the graph fingerprint together with the block and warning
// rows of snap. Edits that leave imports alone still change the digest.
func Digest(snap *Snapshot) string {
	d := xxhash.New()
	_, _ = d.WriteString(snap.Fingerprint)
	_, _ = d.WriteString("\n")
	for _, b := range snap.Blocks {
		_, _ = fmt.Fprintf(d, "b\x00%s\x00%s\x00%d\x00%d\x00%s\n",
			b.File, b.Name, b.StartLine, b.EndLine, strings.Join(b.Params, ","))
	}
	for _, w := range snap.Warnings {
		_, _ = fmt.Fprintf(d, "w\x00%s\x00%s\x00%d\x00%s\n", w.Kind, w.File, w.Line, w.Message)
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// Info summarizes a stored snapshot.
type Info struct {
	ID          int64
	Root        string
	Fingerprint string
	Digest      string
	CreatedAt   time.Time
}

// Save writes snap in a single transaction and returns its id.
func (s *Store) Save(ctx context.Context, snap *Snapshot) (int64, error) {
	if snap.Digest == "" {
		snap.Digest = Digest(snap)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (root, fingerprint, digest, created_at) VALUES (?, ?, ?, ?)",
		snap.Root, snap.Fingerprint, snap.Digest, snap.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	w := &batch{ctx: ctx, tx: tx, id: id}
	for _, f := range snap.Files {
		w.exec("INSERT INTO files (snapshot_id, path, language, family, line_count) VALUES (?, ?, ?, ?, ?)",
			f.Path, f.Language, string(f.Family), f.Lines)
	}
	if snap.Graph != nil {
		for _, e := range snap.Graph.Edges() {
			w.exec("INSERT INTO file_deps (snapshot_id, from_path, to_path) VALUES (?, ?, ?)", e.From, e.To)
		}
	}
	if snap.Modules != nil {
		for _, name := range snap.Modules.Names() {
			m := snap.Modules.Modules[name]
			w.exec("INSERT INTO modules (snapshot_id, name, file_count) VALUES (?, ?, ?)", name, len(m.Files))
			for _, f := range m.Files {
				w.exec("INSERT INTO module_files (snapshot_id, module, path) VALUES (?, ?, ?)", name, f)
			}
			for _, to := range m.ImportsFrom {
				w.exec("INSERT INTO module_deps (snapshot_id, from_module, to_module) VALUES (?, ?, ?)", name, to)
			}
		}
	}
	for i, group := range snap.Cycles {
		for j, mod := range group {
			w.exec("INSERT INTO cycles (snapshot_id, cycle_index, ordinal, module) VALUES (?, ?, ?, ?)", i, j, mod)
		}
	}
	for _, b := range snap.Blocks {
		w.exec("INSERT INTO blocks (snapshot_id, path, name, start_line, end_line) VALUES (?, ?, ?, ?, ?)",
			b.File, b.Name, b.StartLine, nullInt(b.EndLine))
	}
	for _, warn := range snap.Warnings {
		w.exec("INSERT INTO warnings (snapshot_id, kind, path, line, message) VALUES (?, ?, ?, ?, ?)",
			string(warn.Kind), warn.File, warn.Line, warn.Message)
	}
	if w.err != nil {
		return 0, w.err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}
	snap.ID = id
	return id, nil
}

// batch runs inserts scoped to one snapshot, keeping the first error.
type batch struct {
	ctx context.Context
	tx  *sql.Tx
	id  int64
	err error
}

func (b *batch) exec(query string, args ...any) {
	if b.err != nil {
		return
	}
	if _, err := b.tx.ExecContext(b.ctx, query, append([]any{b.id}, args...)...); err != nil {
		b.err = fmt.Errorf("save snapshot: %w", err)
	}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v > 0}
}

// Latest returns the most recent snapshot of root.
func (s *Store) Latest(ctx context.Context, root string) (*Info, error) {
	info := &Info{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, root, fingerprint, digest, created_at FROM snapshots WHERE root = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		root,
	).Scan(&info.ID, &info.Root, &info.Fingerprint, &info.Digest, &info.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s", ErrNoSnapshot, root)
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return info, nil
}

// FileDeps returns the file edges of a snapshot sorted by (from, to).
func (s *Store) FileDeps(ctx context.Context, snapshotID int64) ([]models.Edge, error) {
	return s.edges(ctx,
		"SELECT from_path, to_path FROM file_deps WHERE snapshot_id = ? ORDER BY from_path, to_path", snapshotID)
}

// ModuleDeps returns the module edges of a snapshot sorted by (from, to).
func (s *Store) ModuleDeps(ctx context.Context, snapshotID int64) ([]models.Edge, error) {
	return s.edges(ctx,
		"SELECT from_module, to_module FROM module_deps WHERE snapshot_id = ? ORDER BY from_module, to_module", snapshotID)
}

func (s *Store) edges(ctx context.Context, query string, snapshotID int64) ([]models.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var edges []models.Edge
	for rows.Next() {
		var e models.Edge
		if err := rows.Scan(&e.From, &e.To); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Cycles returns the stored cycle groups in their original order.
func (s *Store) Cycles(ctx context.Context, snapshotID int64) ([]models.SCCGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT cycle_index, module FROM cycles WHERE snapshot_id = ? ORDER BY cycle_index, ordinal",
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var groups []models.SCCGroup
	last := -1
	for rows.Next() {
		var idx int
		var mod string
		if err := rows.Scan(&idx, &mod); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		if idx != last {
			groups = append(groups, nil)
			last = idx
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], mod)
	}
	return groups, rows.Err()
}

// Counts reports the number of rows per table for a snapshot.
func (s *Store) Counts(ctx context.Context, snapshotID int64) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"files", "file_deps", "modules", "module_deps", "cycles", "blocks", "warnings"} {
		var n int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+table+" WHERE snapshot_id = ?", snapshotID,
		).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// Prune deletes all but the newest keep snapshots of root.
func (s *Store) Prune(ctx context.Context, root string, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE root = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE root = ? ORDER BY created_at DESC, id DESC LIMIT ?
		)`,
		root, root, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}
