package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/kanban/internal/domain"
)

var (
	laneColumns = []string{"id", "board_id", "title", "position"}
	cardColumns = []string{"id", "board_id", "lane_id", "title", "description", "position"}
)

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) Create(ctx context.Context, tenantID uuid.UUID, b domain.Board) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO boards (id, tenant_id, title, created_at, updated_at)
			 VALUES ($1, $2, $3, now(), now())`,
			b.ID, tenantID, b.Title,
		); err != nil {
			return err
		}
		return copyContents(ctx, tx, b)
	})
	if err != nil {
		return fmt.Errorf("boardRepo.Create: %w", err)
	}

	return nil
}

func (r *BoardRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Board, error) {
	b := domain.Board{Lanes: []domain.Lane{}, Cards: []domain.Card{}}

	err := r.pool.QueryRow(ctx,
		`SELECT id, title FROM boards WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&b.ID, &b.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Board{}, fmt.Errorf("boardRepo.GetByID: %w", &domain.NotFoundError{Kind: "board", ID: id})
	}
	if err != nil {
		return domain.Board{}, fmt.Errorf("boardRepo.GetByID: %w", err)
	}

	laneRows, err := r.pool.Query(ctx,
		`SELECT id, title, position FROM lanes WHERE board_id = $1 ORDER BY position`,
		id,
	)
	if err != nil {
		return domain.Board{}, fmt.Errorf("boardRepo.GetByID: lanes: %w", err)
	}
	defer laneRows.Close()

	for laneRows.Next() {
		var l domain.Lane
		if err := laneRows.Scan(&l.ID, &l.Title, &l.Position); err != nil {
			return domain.Board{}, fmt.Errorf("boardRepo.GetByID: scan lane: %w", err)
		}
		b.Lanes = append(b.Lanes, l)
	}
	if err := laneRows.Err(); err != nil {
		return domain.Board{}, fmt.Errorf("boardRepo.GetByID: lanes rows: %w", err)
	}

	cardRows, err := r.pool.Query(ctx,
		`SELECT id, lane_id, title, description, position FROM cards
		 WHERE board_id = $1 ORDER BY lane_id, position`,
		id,
	)
	if err != nil {
		return domain.Board{}, fmt.Errorf("boardRepo.GetByID: cards: %w", err)
	}
	defer cardRows.Close()

	for cardRows.Next() {
		var c domain.Card
		if err := cardRows.Scan(&c.ID, &c.LaneID, &c.Title, &c.Description, &c.Position); err != nil {
			return domain.Board{}, fmt.Errorf("boardRepo.GetByID: scan card: %w", err)
		}
		b.Cards = append(b.Cards, c)
	}
	if err := cardRows.Err(); err != nil {
		return domain.Board{}, fmt.Errorf("boardRepo.GetByID: cards rows: %w", err)
	}

	return b, nil
}

func (r *BoardRepo) List(ctx context.Context, tenantID uuid.UUID) ([]domain.BoardSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id, b.title,
		        (SELECT count(*) FROM lanes l WHERE l.board_id = b.id),
		        (SELECT count(*) FROM cards c WHERE c.board_id = b.id),
		        b.created_at, b.updated_at
		 FROM boards b WHERE b.tenant_id = $1
		 ORDER BY b.created_at
		 LIMIT 1000`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.List: %w", err)
	}
	defer rows.Close()

	boards := make([]domain.BoardSummary, 0)
	for rows.Next() {
		var s domain.BoardSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.LaneCount, &s.CardCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("boardRepo.List: scan: %w", err)
		}
		boards = append(boards, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("boardRepo.List: rows: %w", err)
	}

	return boards, nil
}

// Save replaces the board's title, lanes and cards in one transaction.
func (r *BoardRepo) Save(ctx context.Context, tenantID uuid.UUID, b domain.Board) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE boards SET title = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
			b.Title, tenantID, b.ID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.NotFoundError{Kind: "board", ID: b.ID}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM cards WHERE board_id = $1`, b.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM lanes WHERE board_id = $1`, b.ID); err != nil {
			return err
		}
		return copyContents(ctx, tx, b)
	})
	if err != nil {
		return fmt.Errorf("boardRepo.Save: %w", err)
	}

	return nil
}

func (r *BoardRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM boards WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.Delete: %w", &domain.NotFoundError{Kind: "board", ID: id})
	}

	return nil
}

// copyContents bulk-inserts lanes before cards so the lane foreign key holds.
func copyContents(ctx context.Context, tx pgx.Tx, b domain.Board) error {
	if len(b.Lanes) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"lanes"}, laneColumns, pgx.CopyFromRows(laneRows(b))); err != nil {
			return fmt.Errorf("copy lanes: %w", err)
		}
	}
	if len(b.Cards) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"cards"}, cardColumns, pgx.CopyFromRows(cardRows(b))); err != nil {
			return fmt.Errorf("copy cards: %w", err)
		}
	}
	return nil
}

func laneRows(b domain.Board) [][]any {
	rows := make([][]any, 0, len(b.Lanes))
	for _, l := range b.Lanes {
		rows = append(rows, []any{l.ID, b.ID, l.Title, l.Position})
	}
	return rows
}

func cardRows(b domain.Board) [][]any {
	rows := make([][]any, 0, len(b.Cards))
	for _, c := range b.Cards {
		rows = append(rows, []any{c.ID, b.ID, c.LaneID, c.Title, c.Description, c.Position})
	}
	return rows
}
