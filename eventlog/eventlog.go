// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"context"
	"database/sql"
	"math"

	"github.com/holiman/uint256"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/thor"
)

// EventLog persists committed ledger events for later queries.
type EventLog struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open the event log at given path.
func New(path string) (eventLog *EventLog, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventLog == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.WithMessage(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventLog{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create an event log in ram.
func NewMem() (*EventLog, error) {
	eventLog, err := New(":memory:")
	if err != nil {
		return nil, err
	}
	// every connection to :memory: opens a distinct database
	eventLog.db.SetMaxOpenConns(1)
	return eventLog, nil
}

// Close close the event log.
func (db *EventLog) Close() error {
	return db.db.Close()
}

func (db *EventLog) Path() string {
	return db.path
}

func (db *EventLog) DriverVersion() string {
	return db.driverVersion
}

// Insert appends events in one transaction, preserving their order.
func (db *EventLog) Insert(events ...*ledger.Event) error {
	if len(events) == 0 {
		return nil
	}
	err := db.execInTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("INSERT INTO event(type, grantID, account, amount, timestamp) VALUES (?, ?, ?, ?, ?);")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, ev := range events {
			if _, err := stmt.Exec(
				string(ev.Type),
				sqlInt(ev.GrantID),
				ev.Account.Bytes(),
				amountValue(ev.Amount),
				sqlInt(ev.Timestamp),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	metricInsertedCount().Add(int64(len(events)))
	return nil
}

// Filter returns the events selected by filter, a nil filter selects all.
func (db *EventLog) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	const query = "SELECT seq, type, grantID, account, amount, timestamp FROM event"
	if filter == nil {
		return db.queryEvents(ctx, query+" ORDER BY seq ASC")
	}
	metricsHandleFilter(filter)

	var args []any
	stmt := query + " WHERE 1"
	if filter.Range != nil {
		args = append(args, sqlInt(filter.Range.From))
		stmt += " AND timestamp >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, sqlInt(filter.Range.To))
			stmt += " AND timestamp <= ? "
		}
	}
	// the range applies to every criteria, so the OR chain is grouped as a whole
	if len(filter.CriteriaSet) > 0 {
		stmt += " AND ("
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " ( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.GrantID != nil {
			args = append(args, sqlInt(*criteria.GrantID))
			stmt += " AND grantID = ? "
		}
		if criteria.Account != nil {
			args = append(args, criteria.Account.Bytes())
			stmt += " AND account = ? "
		}
		if criteria.Type != nil {
			args = append(args, string(*criteria.Type))
			stmt += " AND type = ? "
		}
		stmt += ")"
	}
	if len(filter.CriteriaSet) > 0 {
		stmt += ")"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, sqlInt(filter.Options.Offset), sqlInt(filter.Options.Limit))
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventLog) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       uint64
			typ       string
			grantID   uint64
			account   []byte
			amount    []byte
			timestamp uint64
		)
		if err := rows.Scan(&seq, &typ, &grantID, &account, &amount, &timestamp); err != nil {
			return nil, err
		}
		ev := &Event{
			Seq:       seq,
			Type:      ledger.EventType(typ),
			GrantID:   grantID,
			Account:   thor.BytesToAddress(account),
			Timestamp: timestamp,
		}
		if len(amount) > 0 {
			ev.Amount = new(uint256.Int).SetBytes(amount)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (db *EventLog) execInTx(proc func(*sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func amountValue(amount *uint256.Int) []byte {
	if amount == nil {
		return nil
	}
	b := amount.Bytes32()
	return b[:]
}

// sqlInt saturates v to the signed range sqlite stores integers in.
func sqlInt(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
