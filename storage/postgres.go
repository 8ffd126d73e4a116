package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pablojokanovich/mafiaonline/domain"
	"github.com/pablojokanovich/mafiaonline/game"
)

// PostgresRepo persists rooms and players with last-write-wins upserts.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

var _ game.Store = (*PostgresRepo)(nil)

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	room := domain.Room{ID: id}
	var phaseEnds *time.Time

	row := r.pool.QueryRow(ctx,
		"SELECT phase, phase_ends, winner, narrative FROM rooms WHERE id = $1", id)
	err := row.Scan(&room.Phase, &phaseEnds, &room.Winner, &room.Narrative)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	if phaseEnds != nil {
		room.PhaseEnds = *phaseEnds
	}
	return room, nil
}

func (r *PostgresRepo) SaveRoom(ctx context.Context, room domain.Room) error {
	var phaseEnds *time.Time
	if !room.PhaseEnds.IsZero() {
		phaseEnds = &room.PhaseEnds
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rooms (id, phase, phase_ends, winner, narrative)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET phase = EXCLUDED.phase, phase_ends = EXCLUDED.phase_ends,
		    winner = EXCLUDED.winner, narrative = EXCLUDED.narrative`,
		room.ID, room.Phase, phaseEnds, room.Winner, room.Narrative)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	return nil
}

const playerColumns = "id, room_id, name, role, alive, host, online, conn_id, action_target, acted"

func scanPlayer(row pgx.Row) (domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.RoomID, &p.Name, &p.Role, &p.Alive,
		&p.Host, &p.Online, &p.ConnID, &p.ActionTarget, &p.Acted)
	return p, err
}

func (r *PostgresRepo) GetPlayer(ctx context.Context, id string) (domain.Player, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+playerColumns+" FROM players WHERE id = $1", id)
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Player{}, domain.ErrPlayerNotFound
		}
		return domain.Player{}, fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	return p, nil
}

func (r *PostgresRepo) GetPlayerByConn(ctx context.Context, connID string) (domain.Player, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+playerColumns+" FROM players WHERE conn_id = $1", connID)
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Player{}, domain.ErrPlayerNotFound
		}
		return domain.Player{}, fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	return p, nil
}

func (r *PostgresRepo) ListPlayersByRoom(ctx context.Context, roomID string) ([]domain.Player, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+playerColumns+" FROM players WHERE room_id = $1 ORDER BY seq", roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.StoreError, err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	return players, nil
}

func (r *PostgresRepo) SavePlayer(ctx context.Context, p domain.Player) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO players (id, room_id, name, role, alive, host, online, conn_id, action_target, acted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET room_id = EXCLUDED.room_id, name = EXCLUDED.name, role = EXCLUDED.role,
		    alive = EXCLUDED.alive, host = EXCLUDED.host, online = EXCLUDED.online,
		    conn_id = EXCLUDED.conn_id, action_target = EXCLUDED.action_target,
		    acted = EXCLUDED.acted`,
		p.ID, p.RoomID, p.Name, p.Role, p.Alive, p.Host, p.Online,
		p.ConnID, p.ActionTarget, p.Acted)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	return nil
}

func (r *PostgresRepo) ResetRoundActions(ctx context.Context, roomID string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE players SET action_target = '', acted = FALSE WHERE room_id = $1", roomID)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	return nil
}

func (r *PostgresRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM players"); err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	if _, err := r.pool.Exec(ctx, "DELETE FROM rooms"); err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	return nil
}
