package database

import (
	"database/sql"
	"sync"
)

// StmtCache keeps one prepared statement per query string.
type StmtCache struct {
	db *sql.DB
	m  sync.Map // query -> *sql.Stmt
}

func NewStmtCache(db *sql.DB) *StmtCache {
	return &StmtCache{db: db}
}

func (sc *StmtCache) Prepare(query string) (*sql.Stmt, error) {
	if cached, ok := sc.m.Load(query); ok {
		return cached.(*sql.Stmt), nil
	}

	stmt, err := sc.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	// lost a race, keep the winner
	if cached, loaded := sc.m.LoadOrStore(query, stmt); loaded {
		_ = stmt.Close()
		return cached.(*sql.Stmt), nil
	}
	return stmt, nil
}

// Len counts cached statements.
func (sc *StmtCache) Len() int {
	n := 0
	sc.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Clear closes every cached statement. Call it before closing the db.
func (sc *StmtCache) Clear() {
	sc.m.Range(func(k, v any) bool {
		_ = v.(*sql.Stmt).Close()
		sc.m.Delete(k)
		return true
	})
}
