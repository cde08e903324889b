package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

const clickHouseSchema = `
CREATE TABLE IF NOT EXISTS game_records (
	game_id       String,
	subject_kind  LowCardinality(String),
	subject_id    String,
	game_date     Date,
	game_type     LowCardinality(String),
	location      String,
	opponent      String,
	plate_appearances UInt16,
	at_bats       UInt16,
	hits          UInt16,
	home_runs     UInt16,
	innings_outs  UInt16,
	raw_json      String,
	archived_at   DateTime
) ENGINE = ReplacingMergeTree(archived_at)
ORDER BY (subject_kind, subject_id, game_date, game_id)`

// ClickHouseArchive appends processed game records for offline analysis.
// ReplacingMergeTree collapses redelivered records on game id.
type ClickHouseArchive struct {
	conn driver.Conn
}

func NewClickHouseArchive(conn driver.Conn) *ClickHouseArchive {
	return &ClickHouseArchive{conn: conn}
}

func (a *ClickHouseArchive) Migrate(ctx context.Context) error {
	if err := a.conn.Exec(ctx, clickHouseSchema); err != nil {
		return fmt.Errorf("create game_records: %w", err)
	}
	return nil
}

func (a *ClickHouseArchive) ArchiveGames(ctx context.Context, games []*models.GameRecord) error {
	if len(games) == 0 {
		return nil
	}
	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO game_records (
			game_id, subject_kind, subject_id, game_date, game_type, location, opponent,
			plate_appearances, at_bats, hits, home_runs, innings_outs, raw_json, archived_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare archive batch: %w", err)
	}

	now := time.Now().UTC()
	for _, g := range games {
		date, err := g.PlayedOn()
		if err != nil {
			continue
		}
		raw, err := json.Marshal(g)
		if err != nil {
			continue
		}
		d := logic.Normalize(g)
		err = batch.Append(
			g.ID,
			string(g.Subject.Kind),
			g.Subject.ID,
			date,
			string(g.GameType),
			g.Location,
			g.Opponent,
			uint16(d.TotalBats),
			uint16(d.AtBats),
			uint16(d.Hits),
			uint16(d.HomeRuns),
			uint16(d.InningsOuts),
			string(raw),
			now,
		)
		if err != nil {
			batch.Abort()
			return fmt.Errorf("append %s: %w", g.ID, err)
		}
	}
	return batch.Send()
}

func (a *ClickHouseArchive) Ping(ctx context.Context) error {
	return a.conn.Ping(ctx)
}

var _ logic.GameArchive = (*ClickHouseArchive)(nil)
