package inmemdb

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type OpKind string

const (
	OpSelect OpKind = "select"
	OpInsert OpKind = "insert"
	OpDelete OpKind = "delete"
)

type (
	// Row is a table row keyed by column.
	Row map[string]interface{}

	// Op is an entry of the operation log.
	Op struct {
		Kind   OpKind
		Table  string
		Column string
		Values []string
		Rows   int64
	}

	failure struct {
		err   error
		times int // <= 0: always
	}

	// DB is an in-memory Relational Store.
	// It logs every operation and can be told to fail some of them.
	DB struct {
		mu       sync.RWMutex
		tables   map[string][]Row
		ops      []Op
		failures map[string]*failure
	}
)

func Open() *DB {
	return &DB{
		tables:   make(map[string][]Row),
		failures: make(map[string]*failure),
	}
}

// Insert adds rows to table, giving an uuid "id" to those without one. It is not logged.
func (db *DB) Insert(table string, rows ...Row) []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.insert(table, rows...)
}

func (db *DB) insert(table string, rows ...Row) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		row := make(Row, len(r)+1)
		for k, v := range r {
			row[k] = v
		}
		if _, ok := row["id"]; !ok {
			row["id"] = uuid.NewString()
		}
		ids = append(ids, fmt.Sprint(row["id"]))
		db.tables[table] = append(db.tables[table], row)
	}
	return ids
}

// Rows returns the rows of table whose column matches value.
func (db *DB) Rows(table, column, value string) []Row {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var rows []Row
	for _, row := range db.tables[table] {
		if matches(row, column, []string{value}) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (db *DB) Count(table string) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.tables[table])
}

// Ops returns the operation log.
func (db *DB) Ops() []Op {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]Op(nil), db.ops...)
}

// Mutations returns the logged inserts and deletes.
func (db *DB) Mutations() []Op {
	var muts []Op
	for _, op := range db.Ops() {
		if op.Kind != OpSelect {
			muts = append(muts, op)
		}
	}
	return muts
}

func (db *DB) ResetOps() {
	db.mu.Lock()
	db.ops = nil
	db.mu.Unlock()
}

// FailOn makes the operations of kind on table return err.
// If times is given, only that many operations fail.
func (db *DB) FailOn(kind OpKind, table string, err error, times ...int) {
	f := &failure{err: err}
	if len(times) > 0 {
		f.times = times[0]
	}
	db.mu.Lock()
	db.failures[string(kind)+":"+table] = f
	db.mu.Unlock()
}

func (db *DB) ClearFailures() {
	db.mu.Lock()
	db.failures = make(map[string]*failure)
	db.mu.Unlock()
}

// failure must be called with the lock held.
func (db *DB) failure(kind OpKind, table string) error {
	key := string(kind) + ":" + table
	f, ok := db.failures[key]
	if !ok {
		return nil
	}
	if f.times > 0 {
		f.times--
		if f.times == 0 {
			delete(db.failures, key)
		}
	}
	return f.err
}

func (db *DB) selectRows(table, column string, values []string) ([]Row, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.failure(OpSelect, table); err != nil {
		return nil, err
	}
	var rows []Row
	for _, row := range db.tables[table] {
		if matches(row, column, values) {
			rows = append(rows, row)
		}
	}
	db.ops = append(db.ops, Op{Kind: OpSelect, Table: table, Column: column, Values: values, Rows: int64(len(rows))})
	return rows, nil
}

func (db *DB) insertRows(table string, rows ...Row) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.failure(OpInsert, table); err != nil {
		return nil, err
	}
	ids := db.insert(table, rows...)
	db.ops = append(db.ops, Op{Kind: OpInsert, Table: table, Column: "id", Values: ids, Rows: int64(len(ids))})
	return ids, nil
}

func (db *DB) deleteRows(table, column string, values []string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.failure(OpDelete, table); err != nil {
		return 0, err
	}
	kept := db.tables[table][:0]
	var n int64
	for _, row := range db.tables[table] {
		if matches(row, column, values) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	db.tables[table] = kept
	db.ops = append(db.ops, Op{Kind: OpDelete, Table: table, Column: column, Values: values, Rows: n})
	return n, nil
}

// matches compares emails case-insensitively.
func matches(row Row, column string, values []string) bool {
	v, ok := row[column]
	if !ok || v == nil {
		return false
	}
	s := fmt.Sprint(v)
	for _, val := range values {
		if s == val || (strings.Contains(column, "email") && strings.EqualFold(s, val)) {
			return true
		}
	}
	return false
}
