package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/config"
	model "auction-house/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// schema is the logical layout from the design: an auctions table keyed by
// auction id and a bids table with a per-auction sequence column that is the
// ordering authority for the ledger.
const schema = `
CREATE TABLE IF NOT EXISTS auctions (
	auction_id     TEXT PRIMARY KEY,
	owner_id       TEXT        NOT NULL,
	title          TEXT        NOT NULL,
	description    TEXT        NOT NULL DEFAULT '',
	image_url      TEXT        NOT NULL DEFAULT '',
	starting_price NUMERIC     NOT NULL,
	current_price  NUMERIC     NOT NULL,
	end_time       TIMESTAMPTZ NOT NULL,
	status         TEXT        NOT NULL DEFAULT 'active',
	bid_count      BIGINT      NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS bids (
	bid_id      TEXT PRIMARY KEY,
	auction_id  TEXT        NOT NULL REFERENCES auctions (auction_id),
	bidder_id   TEXT        NOT NULL,
	amount      NUMERIC     NOT NULL,
	sequence    BIGINT      NOT NULL,
	accepted_at TIMESTAMPTZ NOT NULL,
	UNIQUE (auction_id, sequence)
);
`

// Store implements repository.AuctionStore backed by Postgres via sqlx.
// CommitBid and MarkEnded take row locks so that a second service process
// cannot write through a stale read; such races surface as ErrConflict.
type Store struct {
	db *sqlx.DB
}

// Connect opens and verifies a Postgres connection.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// NewStore returns a Store over an open connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the auctions and bids tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreateAuction(ctx context.Context, a model.Auction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auctions (auction_id, owner_id, title, description, image_url,
		                       starting_price, current_price, end_time, status, bid_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.AuctionID, a.OwnerID, a.Title, a.Description, a.ImageURL,
		a.StartingPrice, a.CurrentPrice, a.EndTime, a.Status, a.BidCount, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating auction %s: %w", a.AuctionID, err)
	}
	return nil
}

func (s *Store) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var a model.Auction
	err := s.db.GetContext(ctx, &a, `SELECT * FROM auctions WHERE auction_id = $1`, auctionID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("getting auction %s: %w", auctionID, err)
	}
	return a, nil
}

func (s *Store) ListExpired(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		`SELECT auction_id FROM auctions WHERE status = 'active' AND end_time <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("listing expired auctions: %w", err)
	}
	return ids, nil
}

// CommitBid appends the bid and raises the current price in one transaction.
// The row lock plus the re-check of status and price keep a concurrent writer
// from landing a stale update; the registry treats ErrConflict as retryable.
func (s *Store) CommitBid(ctx context.Context, bid model.Bid, newPrice decimal.Decimal) (model.Bid, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Bid{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row struct {
		Status       model.AuctionStatus `db:"status"`
		CurrentPrice decimal.Decimal     `db:"current_price"`
		BidCount     int64               `db:"bid_count"`
	}
	err = tx.GetContext(ctx, &row,
		`SELECT status, current_price, bid_count FROM auctions WHERE auction_id = $1 FOR UPDATE`,
		bid.AuctionID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("locking auction %s: %w", bid.AuctionID, err)
	}
	if row.Status != model.StatusActive || newPrice.Cmp(row.CurrentPrice) <= 0 {
		return model.Bid{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrConflict)
	}

	bid.Sequence = row.BidCount + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bids (bid_id, auction_id, bidder_id, amount, sequence, accepted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		bid.BidID, bid.AuctionID, bid.BidderID, bid.Amount, bid.Sequence, bid.AcceptedAt,
	); err != nil {
		return model.Bid{}, fmt.Errorf("inserting bid %s: %w", bid.BidID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE auctions SET current_price = $1, bid_count = $2 WHERE auction_id = $3`,
		newPrice, bid.Sequence, bid.AuctionID,
	); err != nil {
		return model.Bid{}, fmt.Errorf("updating price for auction %s: %w", bid.AuctionID, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Bid{}, fmt.Errorf("committing bid %s: %w", bid.BidID, err)
	}
	return bid, nil
}

// MarkEnded transitions an active auction to ended. The status guard in the
// WHERE clause makes re-running settlement a no-op.
func (s *Store) MarkEnded(ctx context.Context, auctionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE auctions SET status = 'ended' WHERE auction_id = $1 AND status = 'active'`,
		auctionID)
	if err != nil {
		return false, fmt.Errorf("marking auction %s ended: %w", auctionID, err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		return true, nil
	}
	if _, err := s.GetAuction(ctx, auctionID); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) DeleteAuction(ctx context.Context, auctionID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM auctions WHERE auction_id = $1 AND bid_count = 0`, auctionID)
	if err != nil {
		return fmt.Errorf("deleting auction %s: %w", auctionID, err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		return nil
	}
	if _, err := s.GetAuction(ctx, auctionID); err != nil {
		return err
	}
	return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrHasBids)
}

func (s *Store) BidHistory(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := s.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	var bids []model.Bid
	err := s.db.SelectContext(ctx, &bids,
		`SELECT * FROM bids WHERE auction_id = $1 ORDER BY sequence ASC`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("loading bid history for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

func (s *Store) WinningBid(ctx context.Context, auctionID string) (model.Bid, error) {
	if _, err := s.GetAuction(ctx, auctionID); err != nil {
		return model.Bid{}, err
	}
	var bid model.Bid
	err := s.db.GetContext(ctx, &bid,
		`SELECT * FROM bids WHERE auction_id = $1 ORDER BY sequence DESC LIMIT 1`, auctionID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("loading winning bid for auction %s: %w", auctionID, err)
	}
	return bid, nil
}
