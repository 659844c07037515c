// Package engine wires the data-plane drivers together with the metadata
// database shared by every control-plane service.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/driver"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// Options configure engine construction.
type Options struct {
	// StorageDir is the root of the filesystem storage driver.
	StorageDir string
	// DatabasePath is the SQLite file; empty keeps metadata in memory.
	DatabasePath string
	// DockerHost overrides the Docker Engine address.
	DockerHost string
	// Runner executes hypervisor tools; nil uses os/exec.
	Runner driver.CommandRunner
	// SkipNodeRegistration leaves the nodes table empty.
	SkipNodeRegistration bool
}

// Engine is the data-plane handle shared by the control-plane services.
type Engine struct {
	db      *sql.DB
	Compute driver.ComputeDriver
	Storage driver.StorageDriver
	Network driver.NetworkDriver
	logger  *slog.Logger
}

// New opens the metadata database, creates the nodes table and registers
// the local host as a node.
func New(
	compute driver.ComputeDriver,
	storage driver.StorageDriver,
	network driver.NetworkDriver,
	opts Options,
) (*Engine, error) {
	// every in-memory engine gets its own named database
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	if opts.DatabasePath != "" {
		dsn = "file:" + opts.DatabasePath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %w", err)
	}
	// SQLite serialises writers; a single connection also keeps an
	// in-memory database alive for the engine's lifetime.
	db.SetMaxOpenConns(1)

	if err = createNodesTable(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	e := &Engine{
		db:      db,
		Compute: compute,
		Storage: storage,
		Network: network,
		logger:  slog.Default(),
	}

	if !opts.SkipNodeRegistration {
		hostname, hostErr := os.Hostname()
		if hostErr != nil {
			hostname = "localhost"
		}
		if _, err = e.RegisterNode(context.Background(), hostname, localIP()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	e.logger.Debug("engine initialized",
		"compute", compute.Name(),
		"storage", storage.Name(),
		"network", network.Name(),
		"database", databaseLabel(opts.DatabasePath))

	return e, nil
}

// DB returns the metadata database.
func (e *Engine) DB() *sql.DB {
	return e.db
}

// createNodesTable creates the nodes table with one row per hostname.
// Duplicate rows left by older databases are collapsed onto the first one.
func createNodesTable(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			hostname TEXT NOT NULL,
			ip_address TEXT NOT NULL,
			status TEXT NOT NULL
		)`,
		`DELETE FROM nodes WHERE rowid NOT IN (SELECT MIN(rowid) FROM nodes GROUP BY hostname)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS nodes_hostname ON nodes (hostname)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create nodes table: %w", err)
		}
	}
	return nil
}

// RegisterNode records a host in the nodes table with status Ready.
// Registering a known hostname again refreshes its address and keeps its ID.
func (e *Engine) RegisterNode(ctx context.Context, hostname, ip string) (*api.LocalNode, error) {
	node := &api.LocalNode{
		Hostname:  hostname,
		IPAddress: ip,
		Status:    constants.StateReady,
	}

	err := e.db.QueryRowContext(ctx, `INSERT INTO nodes (id, hostname, ip_address, status) VALUES (?, ?, ?, ?)
		ON CONFLICT(hostname) DO UPDATE SET ip_address = excluded.ip_address, status = excluded.status
		RETURNING id`,
		uuid.NewString(), node.Hostname, node.IPAddress, node.Status).Scan(&node.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to register node %s: %w", hostname, err)
	}
	return node, nil
}

// ListNodes returns every registered node.
func (e *Engine) ListNodes(ctx context.Context) ([]api.LocalNode, error) {
	rows, err := e.db.QueryContext(ctx, "SELECT id, hostname, ip_address, status FROM nodes ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	nodes := []api.LocalNode{}
	for rows.Next() {
		var n api.LocalNode
		if err = rows.Scan(&n.ID, &n.Hostname, &n.IPAddress, &n.Status); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Close releases the database and any driver holding resources.
func (e *Engine) Close() error {
	var errs []error
	for _, d := range []any{e.Compute, e.Storage, e.Network} {
		if c, ok := d.(driver.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	errs = append(errs, e.db.Close())
	return errors.Join(errs...)
}

// Auto selects the best available drivers: Docker when the engine answers
// a ping, otherwise Hyper-V on Windows, otherwise in-memory mocks.
func Auto(ctx context.Context, opts Options) (*Engine, error) {
	storage := driver.NewFileSystemStorage(opts.StorageDir)

	docker, err := connectDocker(ctx, opts.DockerHost)
	if err == nil {
		return New(docker, storage, driver.NewMockNetworkDriver(), opts)
	}
	slog.Debug("docker unavailable, falling back", "error", err)

	compute, network := fallbackDrivers(runtime.GOOS, opts.Runner)
	return New(compute, storage, network, opts)
}

// Native uses the OS hypervisor: Hyper-V on Windows, KVM with Linux
// bridges on Linux, in-memory mocks elsewhere.
func Native(opts Options) (*Engine, error) {
	compute, network := nativeDrivers(runtime.GOOS, opts.Runner)
	return New(compute, driver.NewFileSystemStorage(opts.StorageDir), network, opts)
}

// MockLocal builds a fully mocked engine over real filesystem storage.
func MockLocal(opts Options) (*Engine, error) {
	return New(
		driver.NewMockComputeDriver(),
		driver.NewFileSystemStorage(opts.StorageDir),
		driver.NewMockNetworkDriver(),
		opts,
	)
}

func connectDocker(ctx context.Context, host string) (*driver.DockerDriver, error) {
	adapter, err := driver.NewDockerClientAdapter(host)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, constants.DockerPingTimeout)
	defer cancel()

	d := driver.NewDockerDriver(adapter)
	if err = d.Ping(pingCtx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("docker engine not reachable: %w", err)
	}
	return d, nil
}

func fallbackDrivers(goos string, runner driver.CommandRunner) (driver.ComputeDriver, driver.NetworkDriver) {
	if goos == "windows" {
		return driver.NewHyperVDriver(runner), driver.NewHyperVNetworkDriver(runner)
	}
	return driver.NewMockComputeDriver(), driver.NewMockNetworkDriver()
}

func nativeDrivers(goos string, runner driver.CommandRunner) (driver.ComputeDriver, driver.NetworkDriver) {
	switch goos {
	case "windows":
		return driver.NewHyperVDriver(runner), driver.NewHyperVNetworkDriver(runner)
	case "linux":
		return driver.NewKvmDriver(runner), driver.NewLinuxNetworkDriver(runner)
	default:
		return driver.NewMockComputeDriver(), driver.NewMockNetworkDriver()
	}
}

// localIP returns the first non-loopback IPv4 address of the host.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			return ipNet.IP.String()
		}
	}
	return "127.0.0.1"
}

func databaseLabel(path string) string {
	if path == "" {
		return "memory"
	}
	return path
}
