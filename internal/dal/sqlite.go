package dal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Billy-Davies-2/wordrush/internal/models"
)

// SQLiteDAL implements ResultsDAL using SQLite
type SQLiteDAL struct {
	db *sql.DB
}

// NewSQLiteDAL creates a new SQLite data access layer
func NewSQLiteDAL(dbPath string) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// single writer; the archive is written by one subscriber
	db.SetMaxOpenConns(1)

	dal := &SQLiteDAL{db: db}
	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

func (s *SQLiteDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS round_results (
		room_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		policy TEXT NOT NULL,
		decay TEXT NOT NULL,
		revealed INTEGER NOT NULL,
		leaderboard TEXT NOT NULL,
		PRIMARY KEY (room_id, round, started_at)
	);

	CREATE INDEX IF NOT EXISTS idx_round_results_ended ON round_results (ended_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create round_results schema: %w", err)
	}
	return nil
}

func (s *SQLiteDAL) SaveRoundResult(result *models.RoundResult) error {
	if result == nil || result.RoomID == "" {
		return fmt.Errorf("round result needs a room id")
	}

	board, err := json.Marshal(result.Leaderboard)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO round_results
			(room_id, round, started_at, ended_at, policy, decay, revealed, leaderboard)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RoomID, result.Round,
		result.StartedAt.UnixMilli(), result.EndedAt.UnixMilli(),
		string(result.Policy), string(result.Decay), result.Revealed, string(board),
	)
	if err != nil {
		return fmt.Errorf("failed to save round result: %w", err)
	}
	return nil
}

func (s *SQLiteDAL) ListRoundResults(roomID string, limit int) ([]models.RoundResult, error) {
	rows, err := s.db.Query(`
		SELECT room_id, round, started_at, ended_at, policy, decay, revealed, leaderboard
		FROM round_results
		WHERE (? = '' OR room_id = ?)
		ORDER BY ended_at DESC
		LIMIT ?`, roomID, roomID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query round results: %w", err)
	}
	defer rows.Close()

	out := make([]models.RoundResult, 0)
	for rows.Next() {
		var (
			r              models.RoundResult
			started, ended int64
			policy, decay  string
			board          string
		)
		if err := rows.Scan(&r.RoomID, &r.Round, &started, &ended, &policy, &decay, &r.Revealed, &board); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.EndedAt = time.UnixMilli(ended).UTC()
		r.Policy = models.DuplicatePolicy(policy)
		r.Decay = models.DecayModel(decay)
		if err := json.Unmarshal([]byte(board), &r.Leaderboard); err != nil {
			return nil, fmt.Errorf("failed to decode leaderboard for %s round %d: %w", r.RoomID, r.Round, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteDAL) Close() error {
	return s.db.Close()
}
