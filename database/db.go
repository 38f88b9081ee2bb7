package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/mlowry/papersig/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createSignalTableSQL = "CREATE TABLE IF NOT EXISTS signal (strategy TEXT, day TEXT, signal TEXT, PRIMARY KEY (strategy, day))"
	createRunTableSQL    = "CREATE TABLE IF NOT EXISTS run (id TEXT PRIMARY KEY, startedon INTEGER, completedon INTEGER, strategies INTEGER)"
	persistSignalSQL     = "INSERT OR REPLACE INTO signal(strategy, day, signal) VALUES(?,?,?)"
	findSignalsSQL       = "SELECT day, signal FROM signal WHERE strategy = ? ORDER BY day ASC"
	persistRunSQL        = "INSERT INTO run(id, startedon, completedon, strategies) VALUES(?,?,?,?)"
)

// Run represents the metadata of a completed signal batch run.
type Run struct {
	ID          string
	StartedOn   time.Time
	CompletedOn time.Time
	Strategies  int
}

// SignalStorer defines the requirements for persisting strategy signal maps.
type SignalStorer interface {
	// PersistSignalMap stores the provided strategy signal map.
	PersistSignalMap(ctx context.Context, strategy string, signals *shared.SignalMap) error
	// FetchSignalMap fetches the stored signal map of the provided strategy.
	FetchSignalMap(ctx context.Context, strategy string) (*shared.SignalMap, error)
	// PersistRun stores the metadata of a completed batch run.
	PersistRun(ctx context.Context, run *Run) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the SignalStorer interface.
var _ SignalStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database tables.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createSignalTableSQL},
		{SQL: createRunTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// PersistSignalMap stores the provided strategy signal map, replacing
// previously stored entries for the same days.
func (db *Database) PersistSignalMap(ctx context.Context, strategy string, signals *shared.SignalMap) error {
	points := signals.Points()
	if len(points) == 0 {
		return fmt.Errorf("persisting %s: %w", strategy, shared.ErrNoData)
	}

	statements := make(rqlitehttp.SQLStatements, 0, len(points))
	for idx := range points {
		statements = append(statements, &rqlitehttp.SQLStatement{
			SQL: persistSignalSQL,
			PositionalParams: []any{strategy, points[idx].Date.Format(shared.DayLayout),
				points[idx].Signal.String()},
		})
	}

	resp, err := db.client.Execute(ctx, statements,
		&rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}
	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting signal map for %s: %d -> %s", strategy, idx, errStr)
	}

	return nil
}

// FetchSignalMap fetches the stored signal map of the provided strategy.
func (db *Database) FetchSignalMap(ctx context.Context, strategy string) (*shared.SignalMap, error) {
	resp, err := db.client.QuerySingle(ctx, findSignalsSQL, strategy)
	if err != nil {
		return nil, err
	}

	results := resp.GetQueryResultsAssoc()
	if len(results) == 0 {
		return nil, fmt.Errorf("fetching signal map for %s: %w", strategy, shared.ErrNoData)
	}

	signals := shared.NewSignalMap()
	for _, row := range results[0].Rows {
		day, ok := row["day"].(string)
		if !ok {
			return nil, fmt.Errorf("fetching signal map for %s: malformed day column: %s",
				strategy, spew.Sdump(row))
		}
		label, ok := row["signal"].(string)
		if !ok {
			return nil, fmt.Errorf("fetching signal map for %s: malformed signal column: %s",
				strategy, spew.Sdump(row))
		}

		date, err := shared.ParseDay(day)
		if err != nil {
			return nil, err
		}
		signal, err := shared.ParseSignal(label)
		if err != nil {
			return nil, err
		}

		err = signals.Add(date, signal)
		if err != nil {
			return nil, err
		}
	}

	if signals.Size() == 0 {
		return nil, fmt.Errorf("fetching signal map for %s: %w", strategy, shared.ErrNoData)
	}

	return signals, nil
}

// PersistRun stores the metadata of a completed batch run.
func (db *Database) PersistRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}

	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistRunSQL,
			PositionalParams: []any{run.ID, run.StartedOn.Unix(), run.CompletedOn.Unix(),
				run.Strategies},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}
	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting run %s: %d -> %s", run.ID, idx, errStr)
	}

	db.cfg.Logger.Debug().Msgf("persisted run: %s", spew.Sdump(run))

	return nil
}
