/*
SQLiteMintJournal implements MintJournal.
Table is mint_journal

Timestamps are stored as unix milliseconds.
Empty TxHash and Error are stored as empty strings, not NULL.
*/
package chaintxmgrdb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/agreement"
	"github.com/TEENet-io/faucet-go/database"
)

var ErrNotFound = errors.New("mint not found in journal")

var _ MintJournal = (*SQLiteMintJournal)(nil)

type SQLiteMintJournal struct {
	db        *sql.DB
	stmtcache *database.StmtCache
}

func NewSQLiteMintJournal(dbPath string) (*SQLiteMintJournal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection
	if dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	storage := &SQLiteMintJournal{db: db, stmtcache: database.NewStmtCache(db)}
	if err := storage.init(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// Table's row structure is according to MonitoredMint
func (s *SQLiteMintJournal) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS mint_journal (
		RequestId TEXT PRIMARY KEY,
		Asset TEXT NOT NULL,
		Receiver TEXT NOT NULL,
		ClientIP TEXT NOT NULL,
		TxHash TEXT NOT NULL DEFAULT '',
		Status TEXT NOT NULL,
		Error TEXT NOT NULL DEFAULT '',
		CreatedAt INTEGER NOT NULL,
		UpdatedAt INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mint_tx_hash ON mint_journal (TxHash);
	CREATE INDEX IF NOT EXISTS idx_mint_status ON mint_journal (Status);
	CREATE INDEX IF NOT EXISTS idx_mint_updated_at ON mint_journal (UpdatedAt);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteMintJournal) Close() error {
	s.stmtcache.Clear()
	return s.db.Close()
}

func (s *SQLiteMintJournal) Insert(m *MonitoredMint) error {
	query := `
	INSERT INTO mint_journal (RequestId, Asset, Receiver, ClientIP, TxHash, Status, Error, CreatedAt, UpdatedAt)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	updatedAt := m.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = m.CreatedAt
	}
	stmt, err := s.stmtcache.Prepare(query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(m.RequestId, m.Asset, m.Receiver, m.ClientIP, m.TxHash,
		string(m.Status), m.Error, m.CreatedAt.UnixMilli(), updatedAt.UnixMilli())
	return err
}

func (s *SQLiteMintJournal) UpdateStatus(requestId string, status agreement.MintStatus, txHash string, errText string, at time.Time) error {
	query := `
	UPDATE mint_journal SET
		Status = ?,
		TxHash = CASE WHEN ? = '' THEN TxHash ELSE ? END,
		Error = CASE WHEN ? = '' THEN Error ELSE ? END,
		UpdatedAt = ?
	WHERE RequestId = ?;
	`
	stmt, err := s.stmtcache.Prepare(query)
	if err != nil {
		return err
	}
	res, err := stmt.Exec(string(status), txHash, txHash, errText, errText, at.UnixMilli(), requestId)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, requestId)
	}
	return nil
}

const selectColumns = `SELECT RequestId, Asset, Receiver, ClientIP, TxHash, Status, Error, CreatedAt, UpdatedAt FROM mint_journal`

type scanner interface {
	Scan(dest ...any) error
}

func scanMint(row scanner) (*MonitoredMint, error) {
	m := &MonitoredMint{}
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(&m.RequestId, &m.Asset, &m.Receiver, &m.ClientIP, &m.TxHash, &status, &m.Error, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	m.Status = agreement.MintStatus(status)
	m.CreatedAt = time.UnixMilli(createdAt)
	m.UpdatedAt = time.UnixMilli(updatedAt)
	return m, nil
}

func (s *SQLiteMintJournal) query(query string, args ...any) ([]*MonitoredMint, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mints := []*MonitoredMint{}
	for rows.Next() {
		m, err := scanMint(rows)
		if err != nil {
			return nil, err
		}
		mints = append(mints, m)
	}
	return mints, rows.Err()
}

func (s *SQLiteMintJournal) GetByRequestId(requestId string) (*MonitoredMint, error) {
	m, err := scanMint(s.db.QueryRow(selectColumns+` WHERE RequestId = ?;`, requestId))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (s *SQLiteMintJournal) GetByTxHash(txHash string) ([]*MonitoredMint, error) {
	if txHash == "" {
		return []*MonitoredMint{}, nil
	}
	return s.query(selectColumns+` WHERE TxHash = ? ORDER BY CreatedAt;`, txHash)
}

func (s *SQLiteMintJournal) GetByStatus(status ...agreement.MintStatus) ([]*MonitoredMint, error) {
	if len(status) == 0 {
		return []*MonitoredMint{}, nil
	}
	args := make([]any, len(status))
	for i, st := range status {
		args[i] = string(st)
	}
	return s.query(selectColumns+` WHERE Status IN (?`+strings.Repeat(", ?", len(status)-1)+`) ORDER BY CreatedAt;`, args...)
}

func (s *SQLiteMintJournal) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM mint_journal WHERE UpdatedAt < ?;`, olderThan.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Report journals a lifecycle event. Journal failures never affect the mint.
func (s *SQLiteMintJournal) Report(ev *agreement.MintEvent) {
	if ev == nil || ev.Request == nil {
		return
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	errText := ""
	if ev.Err != nil {
		errText = ev.Err.Error()
	}

	var err error
	if ev.Status == agreement.Admitted {
		err = s.Insert(&MonitoredMint{
			RequestId: ev.Request.Id,
			Asset:     ev.Request.Asset,
			Receiver:  ev.Request.Receiver,
			ClientIP:  ev.Request.ClientIP,
			TxHash:    ev.TxHash,
			Status:    ev.Status,
			Error:     errText,
			CreatedAt: at,
		})
	} else {
		err = s.UpdateStatus(ev.Request.Id, ev.Status, ev.TxHash, errText, at)
	}
	if err != nil {
		logger.WithFields(logger.Fields{
			"id":     ev.Request.Id,
			"status": ev.Status,
		}).Errorf("failed to journal mint event: err=%v", err)
	}
}
