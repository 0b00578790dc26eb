// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package rows_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// This file contains a wrapper sql.Driver over the SQLite driver which counts
// the result sets that are opened and closed. It is used to check that
// results are not leaked.

// openRows holds the number of result sets left open, indexed by test name.
// The rowsMutex must be locked when accessing it.
var openRows = map[string]int{}
var rowsMutex sync.Mutex

const testNameTag = "testName"

type trackingDriver struct {
	*sqlite3.SQLiteDriver
}

type trackingConn struct {
	testName string
	*sqlite3.SQLiteConn
}

type trackingRows struct {
	testName string
	closed   bool
	driver.Rows
}

func (r *trackingRows) Close() error {
	if !r.closed {
		r.closed = true
		rowsMutex.Lock()
		openRows[r.testName]--
		rowsMutex.Unlock()
	}
	return r.Rows.Close()
}

func (c *trackingConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	rs, err := c.SQLiteConn.QueryContext(ctx, query, args)
	if err != nil {
		return nil, err
	}
	rowsMutex.Lock()
	openRows[c.testName]++
	rowsMutex.Unlock()
	return &trackingRows{testName: c.testName, Rows: rs}, nil
}

// Open expects the DSN to contain the test name in the testName parameter.
func (d *trackingDriver) Open(name string) (driver.Conn, error) {
	var testName string
	if _, params, ok := strings.Cut(name, "?"); ok {
		for _, p := range strings.Split(params, "&") {
			if v, ok := strings.CutPrefix(p, testNameTag+"="); ok {
				testName = v
			}
		}
	}
	if testName == "" {
		panic("internal error: testName is not found in the db DSN")
	}

	conn, err := d.SQLiteDriver.Open(name)
	if err != nil {
		return nil, err
	}
	sqliteConn, ok := conn.(*sqlite3.SQLiteConn)
	if !ok {
		panic("internal error: base driver is not SQLite")
	}
	return &trackingConn{testName: testName, SQLiteConn: sqliteConn}, nil
}

// openTrackedDB opens an in-memory database whose result sets are counted
// under testName.
func openTrackedDB(testName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3_rowsTracked", "file:"+testName+"?mode=memory&"+testNameTag+"="+testName)
	if err != nil {
		return nil, err
	}
	// Every connection to a memory database has its own data.
	db.SetMaxOpenConns(1)
	return db, nil
}

func openRowsCount(testName string) int {
	rowsMutex.Lock()
	defer rowsMutex.Unlock()
	return openRows[testName]
}

func init() {
	sql.Register("sqlite3_rowsTracked", &trackingDriver{&sqlite3.SQLiteDriver{}})
}
