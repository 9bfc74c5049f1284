// Package index keeps the prompt index consistent with the vault. The Engine
// owns the single writer connection; every mutation, including full
// rebuilds, is serialized through it while reads run on a separate pool.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/vault"
)

type Options struct {
	// Path is the index file. Its -wal and -shm siblings live next to it.
	Path   string
	Source vault.Source
	Logger *log.Logger
	Now    func() time.Time
	// Migrations overrides db.Migrations().
	Migrations []db.Migration
}

type Engine struct {
	path       string
	source     vault.Source
	logger     *log.Logger
	now        func() time.Time
	migrations []db.Migration

	// writeMu serializes every mutation, Initialize, Rebuild, Sync and Close.
	writeMu sync.Mutex

	// stateMu guards the handles and state. Readers hold it shared for the
	// duration of a query so handles are never closed underneath them.
	stateMu sync.RWMutex
	writer  *db.Store
	reader  *db.Store
	state   State
}

func New(opts Options) (*Engine, error) {
	if opts.Path == "" {
		return nil, errors.New("index path is required")
	}
	if opts.Source == nil {
		return nil, errors.New("document source is required")
	}
	e := &Engine{
		path:       opts.Path,
		source:     opts.Source,
		logger:     opts.Logger,
		now:        opts.Now,
		migrations: opts.Migrations,
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.migrations == nil {
		e.migrations = db.Migrations()
	}
	return e, nil
}

func (e *Engine) Path() string {
	return e.path
}

func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// Initialize opens (creating if absent) the index, applies pending
// migrations and switches to WAL journaling. A ready engine is left as is.
func (e *Engine) Initialize(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.State().Status != Disconnected {
		return nil
	}
	return e.connect(ctx)
}

// connect opens both handles and publishes them. Caller holds writeMu.
func (e *Engine) connect(ctx context.Context) error {
	if err := db.EnsureDir(e.path); err != nil {
		return err
	}
	writer, err := db.Open(e.path, db.Writer)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	if err := writer.Init(ctx, e.migrations...); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.EnableWAL(ctx); err != nil {
		_ = writer.Close()
		return err
	}
	reader, err := db.Open(e.path, db.Reader)
	if err != nil {
		_ = writer.Close()
		return fmt.Errorf("open index reader: %w", err)
	}

	e.stateMu.Lock()
	interim := e.reader
	e.writer, e.reader = writer, reader
	if e.state.Status != Rebuilding {
		e.state = State{Status: Ready}
	}
	e.stateMu.Unlock()
	_ = interim.Close()

	e.logger.Debug("index ready", "path", e.path)
	return nil
}

// disconnect closes and unpublishes both handles. Caller holds writeMu.
func (e *Engine) disconnect() error {
	e.stateMu.Lock()
	writer, reader := e.writer, e.reader
	e.writer, e.reader = nil, nil
	e.state = State{Status: Disconnected}
	e.stateMu.Unlock()

	return errors.Join(reader.Close(), writer.Close())
}

// Close releases both handles. Calling it again is a no-op.
func (e *Engine) Close() error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.disconnect()
}

func (e *Engine) setPhase(phase Phase) {
	e.stateMu.Lock()
	e.state = State{Status: Rebuilding, Phase: phase}
	e.stateMu.Unlock()
}

// settle returns the engine to ready after a rebuild or sync, or to
// disconnected when no store is open.
func (e *Engine) settle() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.writer != nil {
		e.state = State{Status: Ready}
		return
	}
	_ = e.reader.Close()
	e.reader = nil
	e.state = State{Status: Disconnected}
}

// View runs fn against the read pool. Reads proceed while a write or rebuild
// is in progress; mid-rebuild results are provisional. Between the removal of
// the old index and the creation of the new one, reads see an empty store.
func (e *Engine) View(ctx context.Context, fn func(*db.Store) error) error {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	if e.reader == nil {
		return ErrNotInitialized
	}
	return fn(e.reader)
}

// Update runs fn against the writer, serialized with every other mutation.
func (e *Engine) Update(ctx context.Context, fn func(*db.Store) error) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.stateMu.RLock()
	writer := e.writer
	e.stateMu.RUnlock()
	if writer == nil {
		return ErrNotInitialized
	}
	return fn(writer)
}

// UpdateTx runs fn inside one writer transaction.
func (e *Engine) UpdateTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return e.Update(ctx, func(s *db.Store) error {
		return s.WithTx(ctx, fn)
	})
}

func view[T any](ctx context.Context, e *Engine, fn func(*db.Store) (T, error)) (T, error) {
	var out T
	err := e.View(ctx, func(s *db.Store) error {
		var err error
		out, err = fn(s)
		return err
	})
	return out, err
}

func update[T any](ctx context.Context, e *Engine, fn func(*db.Store) (T, error)) (T, error) {
	var out T
	err := e.Update(ctx, func(s *db.Store) error {
		var err error
		out, err = fn(s)
		return err
	})
	return out, err
}
