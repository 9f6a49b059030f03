package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"profitmaker/internal/config"
	"profitmaker/internal/model"
)

// Repository defines the standard interface for database operations. The
// database is an optional long-term history sink; the dashboard works
// without one.
type Repository interface {
	Migrate(ctx context.Context) error
	LogQuote(ctx context.Context, quote model.PriceQuote) error
	LogSavedFlip(ctx context.Context, flip model.SavedFlip) error
	QuoteHistory(ctx context.Context, itemID, city string, limit int) ([]model.PriceQuote, error)
}

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool against the configured database.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*PostgresRepository, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

// Migrate creates the history tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS price_quotes (
		id SERIAL PRIMARY KEY,
		observed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		item_id VARCHAR(64) NOT NULL,
		city VARCHAR(50) NOT NULL,
		sell_price_min NUMERIC(20, 2) NOT NULL,
		sell_order_count INT NOT NULL,
		buy_price_max NUMERIC(20, 2) NOT NULL,
		buy_order_count INT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_price_quotes_item_city
		ON price_quotes (item_id, city, observed_at DESC);
	CREATE TABLE IF NOT EXISTS saved_flips (
		id VARCHAR(64) PRIMARY KEY,
		saved_at TIMESTAMPTZ NOT NULL,
		times_updated INT NOT NULL,
		item_id VARCHAR(64) NOT NULL,
		buy_city VARCHAR(50) NOT NULL,
		sell_city VARCHAR(50) NOT NULL,
		buy_price NUMERIC(20, 2) NOT NULL,
		sell_price NUMERIC(20, 2) NOT NULL,
		profit NUMERIC(20, 2) NOT NULL,
		margin NUMERIC(10, 2) NOT NULL,
		liquidity_score NUMERIC(6, 2) NOT NULL,
		risk VARCHAR(10) NOT NULL
	);`
	if _, err := r.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// LogQuote records one fetched price quote.
func (r *PostgresRepository) LogQuote(ctx context.Context, quote model.PriceQuote) error {
	const q = `
	INSERT INTO price_quotes (item_id, city, sell_price_min, sell_order_count, buy_price_max, buy_order_count)
	VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.Pool.Exec(ctx, q,
		quote.ItemID, quote.City,
		quote.SellPriceMin, quote.SellOrderCount,
		quote.BuyPriceMax, quote.BuyOrderCount,
	)
	if err != nil {
		return fmt.Errorf("logging quote: %w", err)
	}
	return nil
}

// LogSavedFlip upserts one saved flip, mirroring the store's upsert.
func (r *PostgresRepository) LogSavedFlip(ctx context.Context, flip model.SavedFlip) error {
	const q = `
	INSERT INTO saved_flips (id, saved_at, times_updated, item_id, buy_city, sell_city,
		buy_price, sell_price, profit, margin, liquidity_score, risk)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		saved_at = EXCLUDED.saved_at,
		times_updated = EXCLUDED.times_updated,
		buy_price = EXCLUDED.buy_price,
		sell_price = EXCLUDED.sell_price,
		profit = EXCLUDED.profit,
		margin = EXCLUDED.margin,
		liquidity_score = EXCLUDED.liquidity_score,
		risk = EXCLUDED.risk`
	_, err := r.Pool.Exec(ctx, q,
		flip.ID, flip.SavedAt, flip.TimesUpdated,
		flip.Flip.ItemID, flip.Flip.BuyCity, flip.Flip.SellCity,
		flip.Flip.BuyPrice, flip.Flip.SellPrice, flip.Flip.Profit,
		flip.Flip.Margin, flip.Flip.LiquidityScore, string(flip.Flip.Risk),
	)
	if err != nil {
		return fmt.Errorf("logging saved flip: %w", err)
	}
	return nil
}

// QuoteHistory returns the most recent recorded quotes for an item in a
// city, newest first.
func (r *PostgresRepository) QuoteHistory(ctx context.Context, itemID, city string, limit int) ([]model.PriceQuote, error) {
	const q = `
	SELECT item_id, city, sell_price_min, sell_order_count, buy_price_max, buy_order_count
	FROM price_quotes
	WHERE item_id = $1 AND city = $2
	ORDER BY observed_at DESC
	LIMIT $3`
	rows, err := r.Pool.Query(ctx, q, itemID, city, limit)
	if err != nil {
		return nil, fmt.Errorf("querying quote history: %w", err)
	}
	defer rows.Close()

	var quotes []model.PriceQuote
	for rows.Next() {
		var quote model.PriceQuote
		if err := rows.Scan(&quote.ItemID, &quote.City,
			&quote.SellPriceMin, &quote.SellOrderCount,
			&quote.BuyPriceMax, &quote.BuyOrderCount); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}
