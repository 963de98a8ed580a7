// Package subset implements the referential subset algorithm: given a seed
// table and a selection strategy, walk the foreign-key graph outward from
// the seed rows and emit every row needed to keep the subset referentially
// intact.
//
// Algorithm:
//  1. find the seed table and pick a fraction of its rows per Strategy.
//  2. for each seed row and every relation of its table, find the parent
//     rows it references and recurse into them.
//  3. stop recursing into a (database, table) pair once it has already been
//     visited, which bounds the walk on cyclic FK graphs while still
//     surfacing every row immediately required.
//  4. de-duplicate rows reachable along more than one path with an on-disk
//     set keyed by "database.table" (see dedup.go), since the visited-table
//     guard above only prevents re-recursion, not re-emission.
package subset

import (
	"errors"
	"io"

	"github.com/brinkdb/snapctl/internal/errs"
	"github.com/brinkdb/snapctl/internal/sqlstmt"
	"github.com/brinkdb/snapctl/internal/token"
)

// ErrSubsetUnsupportedForMongo is returned by Engine.Run when asked to
// subset a Mongo-tagged source; the FK-graph walk below only understands
// relational schemas.
var ErrSubsetUnsupportedForMongo = errors.New("subset: not supported for mongo sources")

// SourceKind tags which dump dialect a subset run is operating on.
type SourceKind int

const (
	SourcePostgres SourceKind = iota
	SourceMySQL
	SourceMongo
)

type tableKey struct{ database, table string }

// Relation is one FK edge: the owning table's FromProperty references
// ToProperty on Database.Table.
type Relation struct {
	Database     string
	Table        string
	FromProperty string
	ToProperty   string
}

// Table is one node of the FK graph discovered during schema ingest.
type Table struct {
	Database  string
	Table     string
	Relations []Relation
}

// Stats summarizes one table's INSERT INTO statements within the dump:
// its column order and the statement-index window that can possibly
// contain one of its rows, so later scans don't read the whole dump again.
type Stats struct {
	Database             string
	Table                string
	Columns              []string
	TotalRows            int
	FirstInsertStatement int
	LastInsertStatement  int
}

// Strategy selects the seed rows an Engine expands outward from: take
// roughly Percent% of Database.Table's rows, spread evenly across it.
type Strategy struct {
	Database string
	Table    string
	Percent  int
}

// Engine runs the referential subset algorithm against an ingested schema
// and a dump stream that can be reopened from the start on demand.
type Engine struct {
	tables   map[tableKey]*Table
	openDump func() (io.ReadCloser, error)
	dedupDir string
}

// NewEngine ingests the schema's CREATE TABLE and ALTER TABLE ... FOREIGN
// KEY statements into an FK graph. openDump must return a fresh reader
// positioned at the start of the dump each time it is called; the engine
// reopens it once per scan. dedupDir holds one file per "database.table"
// group, used to suppress rows reachable along more than one FK path.
func NewEngine(schema io.Reader, openDump func() (io.ReadCloser, error), dedupDir string) (*Engine, error) {
	tables := map[tableKey]*Table{}

	err := scanStatements(schema, func(stmt string) bool {
		toks, terr := tokenizeStatement(stmt)
		if terr != nil {
			return true
		}

		if db, tbl, ok := sqlstmt.DatabaseAndTableFromCreateTable(toks); ok {
			key := tableKey{db, tbl}
			if _, exists := tables[key]; !exists {
				tables[key] = &Table{Database: db, Table: tbl}
			}
		}

		if fk, ok := sqlstmt.ForeignKeyFromAlterTable(toks); ok {
			key := tableKey{fk.FromDatabase, fk.FromTable}
			if t, exists := tables[key]; exists {
				t.Relations = append(t.Relations, Relation{
					Database:     fk.ToDatabase,
					Table:        fk.ToTable,
					FromProperty: fk.FromProperty,
					ToProperty:   fk.ToProperty,
				})
			}
		}

		return true
	})
	if err != nil {
		return nil, err
	}

	return &Engine{tables: tables, openDump: openDump, dedupDir: dedupDir}, nil
}

// Run walks the FK graph outward from strategy's seed rows, calling emit
// for every row the subset needs, in discovery order.
func (e *Engine) Run(source SourceKind, strategy Strategy, emit func(row string)) error {
	if source == SourceMongo {
		return ErrSubsetUnsupportedForMongo
	}

	stats, err := e.tableStats()
	if err != nil {
		return err
	}

	seeds, err := e.seedRows(strategy, stats)
	if err != nil {
		return err
	}

	visited := map[tableKey]bool{{strategy.Database, strategy.Table}: true}
	for _, row := range seeds {
		if err := e.visit(row, visited, stats, emit, false); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) tableStats() (map[tableKey]*Stats, error) {
	r, err := e.openDump()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	stats := map[tableKey]*Stats{}
	idx := 0

	err = scanStatements(r, func(stmt string) bool {
		toks, terr := tokenizeStatement(stmt)
		if terr != nil {
			idx++
			return true
		}

		if db, tbl, ok := sqlstmt.DatabaseAndTableFromCreateTable(toks); ok {
			key := tableKey{db, tbl}
			if _, exists := stats[key]; !exists {
				stats[key] = &Stats{Database: db, Table: tbl}
			}
		}

		if db, tbl, ok := sqlstmt.DatabaseAndTableFromInsert(toks); ok {
			key := tableKey{db, tbl}
			st, exists := stats[key]
			if !exists {
				st = &Stats{Database: db, Table: tbl}
				stats[key] = st
			}
			if st.TotalRows == 0 {
				st.Columns = sqlstmt.ColumnNamesFromInsert(toks)
				st.FirstInsertStatement = idx
			}
			st.LastInsertStatement = idx
			st.TotalRows++
		}

		idx++
		return true
	})
	return stats, err
}

func (e *Engine) seedRows(strategy Strategy, stats map[tableKey]*Stats) ([]string, error) {
	st, ok := stats[tableKey{strategy.Database, strategy.Table}]
	if !ok {
		return nil, errs.NewConfig("subset: seed table " + strategy.Database + "." + strategy.Table + " not found in dump")
	}

	percent := strategy.Percent
	if percent > 100 {
		percent = 100
	}
	if percent <= 0 || st.TotalRows == 0 {
		return nil, nil
	}

	take := int(float64(st.TotalRows) * float64(percent) / 100.0)
	if take == 0 {
		take = 1
	}
	stride := st.TotalRows / take
	if stride == 0 {
		stride = 1
	}

	r, err := e.openDump()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var rows []string
	idx := 0
	counter := 1

	err = scanStatements(r, func(stmt string) bool {
		if idx > st.LastInsertStatement {
			return false
		}
		if idx >= st.FirstInsertStatement {
			if toks, terr := tokenizeStatement(stmt); terr == nil {
				if db, tbl, ok := sqlstmt.DatabaseAndTableFromInsert(toks); ok && db == st.Database && tbl == st.Table {
					if counter%stride == 0 {
						rows = append(rows, stmt)
					}
					counter++
				}
			}
		}
		idx++
		return true
	})
	return rows, err
}

// filterInsertRows scans the dump's statement window for table for INSERT
// rows whose column value equals value, used to resolve a parent row's
// children (or a child row's parent) across a single FK edge.
func (e *Engine) filterInsertRows(database, table, column, value string, stats *Stats) ([]string, error) {
	colIdx := -1
	for i, c := range stats.Columns {
		if c == column {
			colIdx = i
			break
		}
	}
	if colIdx == -1 {
		return nil, errs.NewConfig("subset: table " + database + "." + table + " has no column " + column)
	}

	r, err := e.openDump()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var matches []string
	idx := 0

	err = scanStatements(r, func(stmt string) bool {
		if idx > stats.LastInsertStatement {
			return false
		}
		if idx >= stats.FirstInsertStatement {
			if toks, terr := tokenizeStatement(stmt); terr == nil {
				if db, tbl, ok := sqlstmt.DatabaseAndTableFromInsert(toks); ok && db == database && tbl == table {
					values := sqlstmt.ColumnValuesFromInsert(toks)
					if colIdx < len(values) {
						if v, ok := sqlstmt.ValueString(values[colIdx]); ok && v == value {
							matches = append(matches, stmt)
						}
					}
				}
			}
		}
		idx++
		return true
	})
	return matches, err
}

func (e *Engine) visit(row string, visited map[tableKey]bool, stats map[tableKey]*Stats, emit func(string), lastToVisit bool) error {
	if group, err := e.rowGroup(row); err == nil {
		existed, derr := DoesLineExistAndSet(e.dedupDir, group, row)
		if derr != nil {
			return derr
		}
		if existed {
			return nil
		}
	}
	emit(row)

	if lastToVisit {
		return nil
	}

	toks, terr := tokenizeStatement(row)
	if terr != nil {
		return nil
	}
	db, tbl, ok := sqlstmt.DatabaseAndTableFromInsert(toks)
	if !ok {
		return nil
	}
	key := tableKey{db, tbl}
	visited[key] = true

	table, ok := e.tables[key]
	if !ok {
		return nil
	}

	names := sqlstmt.ColumnNamesFromInsert(toks)
	values := sqlstmt.ColumnValuesFromInsert(toks)

	for _, rel := range table.Relations {
		colIdx := -1
		for i, n := range names {
			if n == rel.FromProperty {
				colIdx = i
				break
			}
		}
		if colIdx == -1 || colIdx >= len(values) {
			continue
		}
		value, ok := sqlstmt.ValueString(values[colIdx])
		if !ok {
			continue
		}

		relKey := tableKey{rel.Database, rel.Table}
		relStats, ok := stats[relKey]
		if !ok {
			continue
		}
		childLastToVisit := visited[relKey]

		matches, ferr := e.filterInsertRows(rel.Database, rel.Table, rel.ToProperty, value, relStats)
		if ferr != nil {
			return ferr
		}
		for _, match := range matches {
			if err := e.visit(match, visited, stats, emit, childLastToVisit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) rowGroup(row string) (string, error) {
	toks, err := tokenizeStatement(row)
	if err != nil {
		return "", err
	}
	db, tbl, ok := sqlstmt.DatabaseAndTableFromInsert(toks)
	if !ok {
		return "", errors.New("subset: row is not an INSERT INTO statement")
	}
	return db + "." + tbl, nil
}

func tokenizeStatement(stmt string) ([]token.Token, error) {
	return token.New(stmt).Tokenize()
}
