package export

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
)

// A signalDB guards a single Postgres connection with a mutex.  pgx.Conn is not safe for
// concurrent use, and while Perform runs the inserts serially today, the guard keeps the type
// safe to hand to anything else later.

type signalDB struct {
	conn *pgx.Conn
	lock sync.Mutex
}

func openSignalDB(uri string) (*signalDB, error) {
	conn, err := pgx.Connect(context.Background(), uri)
	if err != nil {
		return nil, fmt.Errorf("Unable to connect to database: %v", err)
	}
	return &signalDB{conn: conn}, nil
}

func (db *signalDB) Exec(cx context.Context, q string, args ...any) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	_, err := db.conn.Exec(cx, q, args...)
	return err
}

func (db *signalDB) SendBatch(cx context.Context, b *pgx.Batch) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	return db.conn.SendBatch(cx, b).Close()
}

func (db *signalDB) Close() {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.conn.Close(context.Background())
}
