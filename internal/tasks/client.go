// Package tasks runs background maintenance through a backlite queue backed
// by its own SQLite database.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"

	"github.com/questeded/quested/internal/logger"
)

// Client wraps backlite to provide task queue functionality.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config
	log    *logger.Logger

	mu      sync.RWMutex
	started bool
}

// DBPathFor derives the tasks database path from another SQLite file,
// adding a "-tasks" suffix before the extension.
func DBPathFor(mainDBPath string) string {
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	return filepath.Join(dir, name+"-tasks"+ext)
}

// NewClient opens the queue database at dbPath, installs the backlite
// schema and returns a client ready for Register and Start.
func NewClient(dbPath string, cfg Config, log *logger.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "Tasks")

	db, err := openQueueDB(dbPath, cfg.Workers)
	if err != nil {
		return nil, err
	}

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{log},
	})
	if err == nil {
		err = client.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up task queue: %w", err)
	}

	return &Client{
		client: client,
		db:     db,
		config: cfg,
		log:    log,
	}, nil
}

// openQueueDB opens the SQLite file in WAL mode, sized for the worker pool
// plus the enqueueing side.
func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Register registers task queues with the client.
// Must be called before Start().
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing tasks. Calls after the first are ignored.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	already := c.started
	c.started = true
	c.mu.Unlock()
	if already {
		return
	}

	c.log.Info("Task queue started", "workers", c.config.Workers)
	c.client.Start(ctx)
}

// Stop gracefully shuts down the task queue, waiting for active tasks to complete.
// Returns true if all workers finished before the context deadline.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return true
	}

	if !c.client.Stop(ctx) {
		c.log.Warn("Task queue stopped before all tasks completed")
		return false
	}
	c.log.Info("Task queue stopped")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// Enqueue saves a single task and returns its id.
func (c *Client) Enqueue(task backlite.Task) (string, error) {
	ids, err := c.client.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("failed to enqueue task: no id returned")
	}
	return ids[0], nil
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

// queueLogger forwards backlite's key/value log calls to zap.
type queueLogger struct {
	log *logger.Logger
}

func (l queueLogger) Info(message string, params ...any) {
	l.log.Debug(message, params...)
}

func (l queueLogger) Error(message string, params ...any) {
	l.log.Error(message, params...)
}
