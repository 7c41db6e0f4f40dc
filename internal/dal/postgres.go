package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Billy-Davies-2/wordrush/internal/models"
)

// PostgresDAL implements ResultsDAL using PostgreSQL
type PostgresDAL struct {
	db *sql.DB
}

// NewPostgresDAL creates a new PostgreSQL data access layer optimized for CloudNativePG
func NewPostgresDAL(connString string) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute) // recycle across failovers
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Kubernetes DNS can lag behind pod startup, so retry the first ping
	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()
		if lastErr == nil {
			break
		}
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if lastErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	dal := &PostgresDAL{db: db}
	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

func (p *PostgresDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS round_results (
		room_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL,
		policy TEXT NOT NULL,
		decay TEXT NOT NULL,
		revealed INTEGER NOT NULL,
		leaderboard JSONB NOT NULL,
		PRIMARY KEY (room_id, round, started_at)
	);

	CREATE INDEX IF NOT EXISTS idx_round_results_ended ON round_results (ended_at DESC);
	`

	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create round_results schema: %w", err)
	}
	return nil
}

func (p *PostgresDAL) SaveRoundResult(result *models.RoundResult) error {
	if result == nil || result.RoomID == "" {
		return fmt.Errorf("round result needs a room id")
	}

	board, err := json.Marshal(result.Leaderboard)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}

	_, err = p.db.Exec(`
		INSERT INTO round_results
			(room_id, round, started_at, ended_at, policy, decay, revealed, leaderboard)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (room_id, round, started_at) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			revealed = EXCLUDED.revealed,
			leaderboard = EXCLUDED.leaderboard`,
		result.RoomID, result.Round, result.StartedAt, result.EndedAt,
		string(result.Policy), string(result.Decay), result.Revealed, board,
	)
	if err != nil {
		return fmt.Errorf("failed to save round result: %w", err)
	}
	return nil
}

func (p *PostgresDAL) ListRoundResults(roomID string, limit int) ([]models.RoundResult, error) {
	rows, err := p.db.Query(`
		SELECT room_id, round, started_at, ended_at, policy, decay, revealed, leaderboard
		FROM round_results
		WHERE ($1 = '' OR room_id = $1)
		ORDER BY ended_at DESC
		LIMIT $2`, roomID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query round results: %w", err)
	}
	defer rows.Close()

	out := make([]models.RoundResult, 0)
	for rows.Next() {
		var (
			r             models.RoundResult
			policy, decay string
			board         []byte
		)
		if err := rows.Scan(&r.RoomID, &r.Round, &r.StartedAt, &r.EndedAt, &policy, &decay, &r.Revealed, &board); err != nil {
			return nil, err
		}
		r.Policy = models.DuplicatePolicy(policy)
		r.Decay = models.DecayModel(decay)
		if err := json.Unmarshal(board, &r.Leaderboard); err != nil {
			return nil, fmt.Errorf("failed to decode leaderboard for %s round %d: %w", r.RoomID, r.Round, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (p *PostgresDAL) Close() error {
	return p.db.Close()
}
