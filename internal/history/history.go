package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"hktravel/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

const DefaultLimit = 20

// fixed width so created_at sorts lexically
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

var ErrNotFound = errors.New("history: entry not found")

// Entry summarises one route planning request and its best result
type Entry struct {
	ID                  string    `json:"id"`
	OriginID            string    `json:"originId"`
	OriginName          string    `json:"originName"`
	DestinationID       string    `json:"destinationId"`
	DestinationName     string    `json:"destinationName"`
	Preference          string    `json:"preference"`
	RouteCount          int       `json:"routeCount"`
	BestDurationMinutes int       `json:"bestDurationMinutes"`
	BestFare            float64   `json:"bestFare"`
	BestSummary         string    `json:"bestSummary"`
	CreatedAt           time.Time `json:"createdAt"`
}

// NewEntry builds an entry from a plan result. routes must already be sorted
// by preference; the first one is recorded as the best.
func NewEntry(origin, destination domain.Location, preference string, routes []*domain.TravelRoute) Entry {
	e := Entry{
		OriginID:        origin.ID,
		OriginName:      origin.Name,
		DestinationID:   destination.ID,
		DestinationName: destination.Name,
		Preference:      preference,
		RouteCount:      len(routes),
	}
	if len(routes) > 0 {
		e.BestDurationMinutes = routes[0].TotalDurationMinutes
		e.BestFare = routes[0].TotalFare
		e.BestSummary = routes[0].Summary
	}
	return e
}

// Repository persists plan history in SQLite
type Repository struct {
	db      *sql.DB
	writeMu sync.Mutex
	logger  *slog.Logger
	now     func() time.Time
}

// Open connects to the database at path, creating the schema if needed
func Open(ctx context.Context, path string, logger *slog.Logger) (*Repository, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger = logger.With("component", "history")
	logger.Info("history database ready", "path", path)

	return &Repository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Record stores e, assigning an ID and creation time when missing
func (r *Repository) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO plan_history (
			id, origin_id, origin_name, destination_id, destination_name,
			preference, route_count, best_duration_minutes, best_fare, best_summary, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OriginID, e.OriginName, e.DestinationID, e.DestinationName,
		e.Preference, e.RouteCount, e.BestDurationMinutes, e.BestFare, e.BestSummary,
		e.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("inserting history entry: %w", err)
	}

	r.logger.Debug("recorded plan", "id", e.ID, "origin", e.OriginID, "destination", e.DestinationID)
	return e, nil
}

// Recent returns the newest entries first; limit <= 0 uses DefaultLimit
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, origin_id, origin_name, destination_id, destination_name,
			preference, route_count, best_duration_minutes, best_fare, best_summary, created_at
		FROM plan_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, origin_id, origin_name, destination_id, destination_name,
			preference, route_count, best_duration_minutes, best_fare, best_summary, created_at
		FROM plan_history
		WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// Clear deletes every entry and returns how many were removed
func (r *Repository) Clear(ctx context.Context) (int64, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM plan_history`)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	r.logger.Info("cleared history", "count", n)
	return n, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plan_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e         Entry
		createdAt string
	)
	err := s.Scan(
		&e.ID, &e.OriginID, &e.OriginName, &e.DestinationID, &e.DestinationName,
		&e.Preference, &e.RouteCount, &e.BestDurationMinutes, &e.BestFare, &e.BestSummary,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scanning history entry: %w", err)
	}

	e.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	return e, nil
}
