// Package persistence keeps a SQLite ledger of generation runs and the
// reports each run wrote.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
	"github.com/jacksonlee411/attainment-reports/pkg/eventbus"
)

var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	fiscal_year TEXT NOT NULL,
	source TEXT NOT NULL,
	regions TEXT NOT NULL,
	total INTEGER NOT NULL,
	written INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	error TEXT
);
CREATE TABLE IF NOT EXISTS artifacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	label TEXT NOT NULL,
	region TEXT NOT NULL,
	safe_name TEXT NOT NULL,
	path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS artifacts_run_id ON artifacts(run_id);
`

// Run is one row of the runs table.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	FiscalYear string     `json:"fiscal_year"`
	Source     string     `json:"source"`
	Regions    []string   `json:"regions"`
	Total      int        `json:"total"`
	Written    int        `json:"written"`
	Failed     int        `json:"failed"`
	Error      string     `json:"error,omitempty"`
}

type Ledger struct {
	db  *sql.DB
	log *logrus.Entry
}

// OpenLedger opens (and creates, if needed) the ledger database at path.
func OpenLedger(path string, log *logrus.Entry) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "ensure ledger dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open ledger")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create ledger schema")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Ledger{db: db, log: log}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Subscribe records run and artifact events. Write failures are logged and
// never interrupt the run.
func (l *Ledger) Subscribe(bus eventbus.EventBus) {
	ctx := context.Background()
	bus.Subscribe(func(e *services.RunStarted) {
		if err := l.RecordStart(ctx, e); err != nil {
			l.log.WithError(err).WithField("run.id", e.RunID.String()).Error("ledger: record run start")
		}
	})
	bus.Subscribe(func(e *services.ReportWritten) {
		if err := l.RecordArtifact(ctx, e.RunID, e.Artifact); err != nil {
			l.log.WithError(err).WithField("run.id", e.RunID.String()).Error("ledger: record artifact")
		}
	})
	bus.Subscribe(func(e *services.RunFinished) {
		if err := l.RecordFinish(ctx, e); err != nil {
			l.log.WithError(err).WithField("run.id", e.RunID.String()).Error("ledger: record run finish")
		}
	})
}

func (l *Ledger) RecordStart(ctx context.Context, e *services.RunStarted) error {
	regions, err := json.Marshal(e.Regions)
	if err != nil {
		return errors.Wrap(err, "marshal regions")
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, fiscal_year, source, regions, total) VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID.String(), formatTime(e.StartedAt), e.FiscalYear, e.Source, string(regions), e.Candidates,
	)
	if err != nil {
		return errors.Wrap(err, "insert run")
	}
	return nil
}

func (l *Ledger) RecordArtifact(ctx context.Context, runID uuid.UUID, a services.Artifact) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO artifacts (run_id, label, region, safe_name, path) VALUES (?, ?, ?, ?, ?)`,
		runID.String(), a.Label, a.Region, a.SafeName, a.Path,
	)
	if err != nil {
		return errors.Wrap(err, "insert artifact")
	}
	return nil
}

func (l *Ledger) RecordFinish(ctx context.Context, e *services.RunFinished) error {
	var written, failed int
	if e.Result != nil {
		written = e.Result.Written()
		failed = len(e.Result.Failures)
	}
	var runErr sql.NullString
	if e.Err != nil {
		runErr = sql.NullString{String: e.Err.Error(), Valid: true}
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, written = ?, failed = ?, error = ? WHERE id = ?`,
		formatTime(e.FinishedAt), written, failed, runErr, e.RunID.String(),
	)
	if err != nil {
		return errors.Wrap(err, "update run")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrap(ErrRunNotFound, e.RunID.String())
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, fiscal_year, source, regions, total, written, failed, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                    Run
			id, started, regions string
			finished, runErr     sql.NullString
		)
		if err := rows.Scan(&id, &started, &finished, &r.FiscalYear, &r.Source, &regions, &r.Total, &r.Written, &r.Failed, &runErr); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, errors.Wrapf(err, "parse run id %q", id)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished.Valid {
			t, err := parseTime(finished.String)
			if err != nil {
				return nil, err
			}
			r.FinishedAt = &t
		}
		if err := json.Unmarshal([]byte(regions), &r.Regions); err != nil {
			return nil, errors.Wrap(err, "decode regions")
		}
		r.Error = runErr.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}
	return out, nil
}

// Artifacts lists the reports a run wrote in write order.
func (l *Ledger) Artifacts(ctx context.Context, runID uuid.UUID) ([]services.Artifact, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT label, region, safe_name, path FROM artifacts WHERE run_id = ? ORDER BY id`, runID.String())
	if err != nil {
		return nil, errors.Wrap(err, "query artifacts")
	}
	defer rows.Close()

	var out []services.Artifact
	for rows.Next() {
		var a services.Artifact
		if err := rows.Scan(&a.Label, &a.Region, &a.SafeName, &a.Path); err != nil {
			return nil, errors.Wrap(err, "scan artifact")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate artifacts")
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", s)
	}
	return t, nil
}
