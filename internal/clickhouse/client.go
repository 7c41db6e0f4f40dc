package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Billy-Davies-2/wordrush/internal/models"
)

// Client records claimed words in ClickHouse for cross-round analytics
type Client struct {
	conn driver.Conn
}

// NewClient creates a new ClickHouse client
func NewClient(addr, database, username, password string) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{conn: conn}, nil
}

// EnsureSchema creates the word_claims table when missing
func (c *Client) EnsureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS word_claims (
			room_id     String,
			round       UInt32,
			ended_at    DateTime64(3),
			player_id   String,
			player_name String,
			word        LowCardinality(String),
			base        UInt32,
			usage       UInt32,
			final       UInt32
		)
		ENGINE = MergeTree
		ORDER BY (word, ended_at)
		TTL toDateTime(ended_at) + INTERVAL 90 DAY
	`
	if err := c.conn.Exec(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create word_claims: %w", err)
	}
	return nil
}

// RecordRound inserts one row per claimed word of a finished round
func (c *Client) RecordRound(result *models.RoundResult) error {
	ctx := context.Background()

	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO word_claims")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	rows := 0
	for _, entry := range result.Leaderboard {
		for _, w := range entry.Words {
			if err := batch.Append(
				result.RoomID,
				uint32(result.Round),
				result.EndedAt,
				entry.PlayerID,
				entry.Name,
				w.Word,
				uint32(w.Base),
				uint32(w.Usage),
				uint32(w.Final),
			); err != nil {
				batch.Abort()
				return fmt.Errorf("failed to append claim %s: %w", w.Word, err)
			}
			rows++
		}
	}

	if rows == 0 {
		return batch.Abort()
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send %d claims: %w", rows, err)
	}
	return nil
}

// TopWords returns the most claimed words over the last 30 days
func (c *Client) TopWords(limit int) ([]models.WordStat, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			word,
			toInt64(count()) AS claims,
			toInt64(sum(final)) AS points
		FROM word_claims
		WHERE ended_at >= now() - INTERVAL 30 DAY
		GROUP BY word
		ORDER BY claims DESC, points DESC, word ASC
		LIMIT ?
	`

	rows, err := c.conn.Query(context.Background(), query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]models.WordStat, 0, limit)
	for rows.Next() {
		var (
			word           string
			claims, points int64
		)
		if err := rows.Scan(&word, &claims, &points); err != nil {
			return nil, err
		}
		stats = append(stats, models.WordStat{Word: word, Claims: int(claims), Points: int(points)})
	}

	return stats, rows.Err()
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
