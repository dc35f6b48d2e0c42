package engine

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"db-describe/internal/migrations"

	"github.com/sirupsen/logrus"
)

// Result reports one executed batch.
type Result struct {
	Batch         int
	Transactional bool
	Duration      time.Duration
}

// Executor runs migration commands against a database. Consecutive transactional
// commands share one transaction; a command that suppresses the transaction
// commits whatever is pending and then runs on its own.
type Executor struct {
	db  *sql.DB
	log logrus.FieldLogger

	// OnProgress is called after every batch that succeeded.
	OnProgress func()
}

// NewExecutor returns an Executor. log may be nil.
func NewExecutor(db *sql.DB, log logrus.FieldLogger) *Executor {
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	return &Executor{db: db, log: log}
}

// Execute runs cmds in order and stops at the first failure, rolling back the
// open transaction. Batches committed before the failure stay applied; the
// returned results list them.
func (e *Executor) Execute(ctx context.Context, cmds []migrations.Command) ([]Result, error) {
	var results []Result
	var tx *sql.Tx
	pending, applied := 0, 0

	commit := func() error {
		if tx == nil {
			return nil
		}
		err := tx.Commit()
		tx = nil
		if err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		e.log.WithField("batches", pending).Debug("Transaction committed")
		pending, applied = 0, len(results)
		return nil
	}
	rollback := func() {
		if tx == nil {
			return
		}
		if err := tx.Rollback(); err != nil {
			e.log.WithError(err).Warn("Rollback failed")
		}
		tx = nil
	}

	for i, c := range cmds {
		batch := i + 1
		log := e.log.WithFields(logrus.Fields{"batch": batch, "transactional": !c.SuppressTransaction})
		start := time.Now()

		var err error
		if c.SuppressTransaction {
			if err := commit(); err != nil {
				return results[:applied], err
			}
			_, err = e.db.ExecContext(ctx, c.SQL)
		} else {
			if tx == nil {
				if tx, err = e.db.BeginTx(ctx, nil); err != nil {
					return results[:applied], fmt.Errorf("failed to begin transaction: %w", err)
				}
			}
			_, err = tx.ExecContext(ctx, c.SQL)
			pending++
		}
		if err != nil {
			rollback()
			log.WithError(err).Error("Batch failed")
			return results[:applied], fmt.Errorf("batch %d: %w", batch, err)
		}

		elapsed := time.Since(start)
		log.WithField("elapsed", elapsed).Debug("Batch executed")
		results = append(results, Result{Batch: batch, Transactional: !c.SuppressTransaction, Duration: elapsed})
		if c.SuppressTransaction {
			applied = len(results)
		}
		if e.OnProgress != nil {
			e.OnProgress()
		}
	}

	if err := commit(); err != nil {
		return results[:applied], err
	}
	return results, nil
}
