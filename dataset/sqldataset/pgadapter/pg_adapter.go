/*
Package pgadapter provides an implementation of the
Adapter interface in the sqldataset package that works
over a PostgreSQL database.
*/
package pgadapter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/pbanos/sapling/dataset/sqldataset"

	// Import of PostgreSQL driver
	_ "github.com/lib/pq"
)

const (
	stepTableCreateStmt = `CREATE TABLE IF NOT EXISTS steps (
		id SERIAL PRIMARY KEY,
		student TEXT NOT NULL,
		position INTEGER NOT NULL,
		problem INTEGER NOT NULL,
		result DOUBLE PRECISION NOT NULL,
		payload TEXT NOT NULL,
		UNIQUE (student, position))`

	// MaxStepInsertionsPerStatement is the maximum number
	// of steps that are allowed to be added with a single
	// insert command with the AddSteps method of the adapter.
	// Trying to add more will result in making more insertion commands
	MaxStepInsertionsPerStatement = 10

	stepColumns = 5
)

type adapter struct {
	db *sql.DB
}

/*
New takes a PostgreSQL database connection URL and returns
an Adapter that works on the database or an error if it fails to connect to it.
*/
func New(url string) (sqldataset.Adapter, error) {
	db, err := sql.Open("postgres", url)
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
	insertStmt, values := insertStatement(rows)
	_, err := a.db.ExecContext(ctx, insertStmt, values...)
	return err
}

// insertStatement builds a multi-row insert with numbered placeholders.
func insertStatement(rows []*sqldataset.StepRow) (string, []interface{}) {
	var buf bytes.Buffer
	buf.WriteString("INSERT INTO steps (student, position, problem, result, payload) VALUES ")
	values := make([]interface{}, 0, stepColumns*len(rows))
	for i, r := range rows {
		if i > 0 {
			buf.WriteString(", ")
		}
		base := i * stepColumns
		buf.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		values = append(values, r.Student, r.Position, r.Problem, r.Result, r.Payload)
	}
	return buf.String(), values
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
