/*
Package sqlite3adapter provides an implementation of the
Adapter interface in the sqldataset package that works
over an SQLite3 database file.
*/
package sqlite3adapter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbanos/sapling/dataset/sqldataset"
)

const (
	stepTableCreateStmt = `CREATE TABLE IF NOT EXISTS steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student TEXT NOT NULL,
		position INTEGER NOT NULL,
		problem INTEGER NOT NULL,
		result REAL NOT NULL,
		payload TEXT NOT NULL,
		UNIQUE (student, position))`
	/*
		MaxStepInsertionsPerStatement is the maximum number
		of steps that are allowed to be added with a single
		insert command with the AddSteps method of the adapter.
		Trying to add more will result in making more insertion commands
	*/
	MaxStepInsertionsPerStatement = 10

	insertStmtStart = "INSERT INTO steps (student, position, problem, result, payload) VALUES (?, ?, ?, ?, ?)"
	insertStmtRow   = ", (?, ?, ?, ?, ?)"
)

type adapter struct {
	db *sql.DB
}

/*
New takes a path to an SQLite3 database file and returns an Adapter that works
on the file's database or an error if it fails to open as an sqlite3 database.
*/
func New(path string) (sqldataset.Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &adapter{db}, nil
}

func (a *adapter) CreateStepTable(ctx context.Context) error {
	createStmt, err := a.db.PrepareContext(ctx, stepTableCreateStmt)
	if err != nil {
		return fmt.Errorf("preparing steps creation statement: %v", err)
	}
	defer createStmt.Close()
	_, err = createStmt.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("running steps creation statement: %v", err)
	}
	return nil
}

func (a *adapter) AddSteps(ctx context.Context, rows []*sqldataset.StepRow) (int, error) {
	added := 0
	for start := 0; start < len(rows); start += MaxStepInsertionsPerStatement {
		end := start + MaxStepInsertionsPerStatement
		if end > len(rows) {
			end = len(rows)
		}
		err := a.insert(ctx, rows[start:end])
		if err != nil {
			return added, fmt.Errorf("inserting steps %d to %d: %v", start, end, err)
		}
		added = end
	}
	return added, nil
}

func (a *adapter) insert(ctx context.Context, rows []*sqldataset.StepRow) error {
	var insertStmtBuffer bytes.Buffer
	insertStmtBuffer.WriteString(insertStmtStart)
	values := make([]interface{}, 0, 5*len(rows))
	for i, r := range rows {
		if i > 0 {
			insertStmtBuffer.WriteString(insertStmtRow)
		}
		values = append(values, r.Student, r.Position, r.Problem, r.Result, r.Payload)
	}
	insertStmt, err := a.db.PrepareContext(ctx, insertStmtBuffer.String())
	if err != nil {
		return fmt.Errorf("preparing insert command for %d steps: %v", len(rows), err)
	}
	defer insertStmt.Close()
	_, err = insertStmt.ExecContext(ctx, values...)
	return err
}

func (a *adapter) IterateOnSteps(ctx context.Context, lambda func(*sqldataset.StepRow) (bool, error)) error {
	rows, err := a.db.QueryContext(ctx, `SELECT student, position, problem, result, payload FROM steps ORDER BY student, position`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		r := &sqldataset.StepRow{}
		err = rows.Scan(&r.Student, &r.Position, &r.Problem, &r.Result, &r.Payload)
		if err != nil {
			return err
		}
		ok, err := lambda(r)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return rows.Err()
}

func (a *adapter) CountStudents(ctx context.Context) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT student) FROM steps`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting students: %v", err)
	}
	return count, nil
}

func (a *adapter) Close() error {
	return a.db.Close()
}
