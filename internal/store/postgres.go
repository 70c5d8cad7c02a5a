package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/models"
)

// PostgresSource loads subscriber rows from the relational subscriber store.
// It implements alerting.SubscriberSource.
type PostgresSource struct {
	db *pgxpool.Pool
}

// NewPostgresSource opens a connection pool for the given DSN.
func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening subscriber store: %w", err)
	}

	log := logger.WithComponent("subscriber_store")
	log.Info().Msg("postgres pool opened")
	return &PostgresSource{db: pool}, nil
}

// FetchSubscribers returns all subscriber rows for a topic in creation order.
// Bound columns are nullable; a NULL side stays unbounded.
func (s *PostgresSource) FetchSubscribers(ctx context.Context, topic string) ([]*models.Subscriber, error) {
	query := `
		SELECT subscriber_id, name, email,
		       min_temp, max_temp, min_hum, max_hum, min_pres, max_pres
		FROM subscribers
		WHERE topic_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, topic)
	if err != nil {
		return nil, fmt.Errorf("querying subscribers for topic %s: %w", topic, err)
	}
	defer rows.Close()

	var subscribers []*models.Subscriber
	for rows.Next() {
		var (
			id          string
			name, email *string
			patch       models.SubscriberPatch
		)
		if err := rows.Scan(&id, &name, &email,
			&patch.MinTemp, &patch.MaxTemp,
			&patch.MinHum, &patch.MaxHum,
			&patch.MinPres, &patch.MaxPres); err != nil {
			return nil, fmt.Errorf("scanning subscriber row: %w", err)
		}

		sub := models.NewSubscriber(id)
		patch.Name = name
		patch.Email = email
		patch.Apply(sub)
		subscribers = append(subscribers, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading subscriber rows: %w", err)
	}

	return subscribers, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	s.db.Close()
}
