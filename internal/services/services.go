// Package services implements the ZeroCloud control-plane services: object
// store, document tables, functions, queues, IAM, load balancing and EKS.
// Metadata lives in the engine's SQLite database.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/engine"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

// Options tune service behaviour.
type Options struct {
	// FunctionTimeout bounds a single function invocation.
	FunctionTimeout time.Duration
	// QueueVisibilityTimeout hides a received message from other consumers.
	QueueVisibilityTimeout time.Duration
	// QueueBaseURL prefixes queue URLs.
	QueueBaseURL string
	// Executor runs function code; nil runs real processes.
	Executor Executor
	// Now is the clock; nil uses time.Now.
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.FunctionTimeout <= 0 {
		o.FunctionTimeout = constants.DefaultFunctionTimeout
	}
	if o.QueueVisibilityTimeout <= 0 {
		o.QueueVisibilityTimeout = constants.DefaultQueueVisibilityTimeout
	}
	if o.QueueBaseURL == "" {
		o.QueueBaseURL = fmt.Sprintf("http://localhost:%d", constants.DefaultPort)
	}
	if o.Executor == nil {
		o.Executor = ProcessExecutor{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Services bundles every control-plane service backed by one engine.
type Services struct {
	Store *StoreService
	DB    *DBService
	Func  *FuncService
	Queue *QueueService
	IAM   *IAMService
	LB    *LBService
	EKS   *EKSService
}

// New creates the service tables and returns the service set.
func New(ctx context.Context, eng *engine.Engine, opts Options, log *slog.Logger) (*Services, error) {
	opts.setDefaults()
	if log == nil {
		log = slog.Default()
	}
	db := eng.DB()

	s := &Services{
		Store: NewStoreService(eng.Storage),
		DB:    &DBService{db: db, logger: log},
		Func:  &FuncService{db: db, executor: opts.Executor, timeout: opts.FunctionTimeout, logger: log},
		Queue: &QueueService{
			db: db, baseURL: opts.QueueBaseURL, visibility: opts.QueueVisibilityTimeout, now: opts.Now, logger: log,
		},
		IAM: &IAMService{db: db, logger: log},
		LB:  &LBService{db: db, logger: log},
		EKS: &EKSService{db: db, logger: log},
	}

	for _, m := range []migrator{s.DB, s.Func, s.Queue, s.IAM, s.LB, s.EKS} {
		if err := m.migrate(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type migrator interface {
	migrate(ctx context.Context) error
}

func execAll(ctx context.Context, db *sql.DB, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare schema: %w", err)
		}
	}
	return nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// validIdentifier rejects names that cannot be used verbatim as SQL
// identifiers.
func validIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return apperrors.ErrValidation(
			fmt.Sprintf("invalid %s name %q", kind, name),
			errors.New("names must start with a letter or underscore and contain only letters, digits and underscores"))
	}
	return nil
}

func internalError(what string, err error) error {
	return apperrors.ErrInternalError("failed to "+what, err)
}
