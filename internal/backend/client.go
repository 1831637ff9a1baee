// Package backend is the embedded backend service: relational tables behind
// gorm and an auth service issuing JWT sessions. Callers talk to it through
// a single Client, the way a hosted backend-as-a-service client would be used.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/questeded/quested/internal/catalog"
	"github.com/questeded/quested/internal/config"
	"github.com/questeded/quested/internal/entities"
	"github.com/questeded/quested/internal/logger"
)

const (
	schemeSQLite     = "sqlite://"
	schemePostgres   = "postgres://"
	schemePostgreSQL = "postgresql://"
)

// ErrMissingAnonKey is returned by New when no anonymous key is configured.
var ErrMissingAnonKey = errors.New("backend anon key is required")

// Options configures New.
type Options struct {
	Backend config.Backend
	Redis   config.Redis
	Logger  *logger.Logger
	// Mailer delivers confirmation and recovery links. Defaults to LogMailer.
	Mailer Mailer
}

// Client is the single configured handle to the backend.
type Client struct {
	db     *gorm.DB
	log    *logger.Logger
	events *eventBus

	// Auth is the auth sub-client.
	Auth *AuthClient
}

// New opens the backend selected by the URL scheme, migrates the schema and
// seeds the catalogs if they are empty.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Backend.AnonKey) == "" {
		return nil, ErrMissingAnonKey
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	dialector, err := openDialector(opts.Backend.URL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(os.Stdout),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to backend: %w", err)
	}

	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.WithContext(ctx).AutoMigrate(
		&entities.UserProfile{},
		&entities.Quest{},
		&entities.UserQuestProgress{},
		&entities.Badge{},
		&entities.UserBadge{},
		&entities.AvatarItem{},
		&entities.UserAvatarItem{},
		&entities.FlashcardSet{},
		&entities.Flashcard{},
		&entities.AuthUser{},
		&entities.AuthRefreshToken{},
		&entities.AuthOneTimeToken{},
	)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to migrate backend: %w", err)
	}

	events, err := newEventBus(ctx, opts.Redis, log)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	mailer := opts.Mailer
	if mailer == nil {
		mailer = NewLogMailer(log)
	}

	client := &Client{
		db:     db,
		log:    log.With("service", "Backend"),
		events: events,
	}
	client.Auth = newAuthClient(db, opts.Backend, events, mailer, log)

	if err := client.SeedCatalog(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	client.log.Info("Backend initialized", "engine", dialector.Name())
	return client, nil
}

// newGormLogger reports slow queries and real failures. Missing rows are an
// expected answer for single-row reads and are not logged.
func newGormLogger(w io.Writer) gormlogger.Interface {
	return gormlogger.New(stdlog.New(w, "\r\n", stdlog.LstdFlags), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func openDialector(url string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, schemeSQLite):
		path := strings.TrimPrefix(url, schemeSQLite)
		if path == "" {
			return nil, newError(CodeInvalidParameter, "sqlite backend URL has no path")
		}
		return sqlite.Open(path), nil
	case strings.HasPrefix(url, schemePostgres), strings.HasPrefix(url, schemePostgreSQL):
		return postgres.Open(url), nil
	}
	return nil, newError(CodeInvalidParameter, fmt.Sprintf("unsupported backend URL %q", url))
}

// From returns a query builder scoped to one table.
func (c *Client) From(ctx context.Context, table string) *gorm.DB {
	return c.db.WithContext(ctx).Table(table)
}

// DB returns the underlying handle, bound to ctx.
func (c *Client) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

// Ping checks the backend connection.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return Translate(err)
	}
	return Translate(sqlDB.PingContext(ctx))
}

func (c *Client) Close() error {
	c.events.close()
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// SeedCatalog inserts the default quests, badges and avatar items that are
// missing. Existing rows are left alone.
func (c *Client) SeedCatalog(ctx context.Context) error {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	db := c.db.WithContext(ctx)

	for i, quest := range catalog.Quests() {
		quest.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := seedRow(db, &entities.Quest{}, quest.ID, &quest); err != nil {
			return fmt.Errorf("quest %s: %w", quest.ID, err)
		}
	}
	for i, badge := range catalog.Badges() {
		badge.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := seedRow(db, &entities.Badge{}, badge.ID, &badge); err != nil {
			return fmt.Errorf("badge %s: %w", badge.ID, err)
		}
	}
	for i, item := range catalog.AvatarItems() {
		item.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := seedRow(db, &entities.AvatarItem{}, item.ID, &item); err != nil {
			return fmt.Errorf("avatar item %s: %w", item.ID, err)
		}
	}
	return nil
}

func seedRow(db *gorm.DB, model interface{}, id string, row interface{}) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(row).Error
}
