package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitchside/pitchside/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Repository implements notification persistence plus read-only access to
// the favorite-team and preference tables owned by the account surface.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUserIDsFavoritingTeams returns the distinct users favoriting any of
// the given teams. A user favoriting both sides of a match appears once.
func (r *Repository) ListUserIDsFavoritingTeams(ctx context.Context, teamIDs []uuid.UUID) ([]uuid.UUID, error) {
	const query = `SELECT DISTINCT user_id FROM favorite_teams WHERE team_id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list favoriting users: %w", err)
	}
	defer rows.Close()

	var userIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favoriting users: %w", err)
	}
	return userIDs, nil
}

// ListPreferences returns all preference rows of the given users for one
// notification type, both global and team-scoped.
func (r *Repository) ListPreferences(ctx context.Context, userIDs []uuid.UUID, typ models.NotificationType) ([]models.NotificationPreference, error) {
	const query = `
		SELECT user_id, type, channel, team_id, enabled
		FROM notification_preferences
		WHERE user_id = ANY($1) AND type = $2
	`

	rows, err := r.pool.Query(ctx, query, userIDs, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	var prefs []models.NotificationPreference
	for rows.Next() {
		var pref models.NotificationPreference
		if err := rows.Scan(&pref.UserID, &pref.Type, &pref.Channel, &pref.TeamID, &pref.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return prefs, nil
}

// CreateBatch inserts notifications, skipping rows that already exist for
// the same (user, type, channel, match). Returns the number actually
// inserted, so re-running a fan-out is a no-op.
func (r *Repository) CreateBatch(ctx context.Context, notifications []models.Notification) (int, error) {
	if len(notifications) == 0 {
		return 0, nil
	}

	const query = `
		INSERT INTO notifications (id, user_id, match_id, type, channel, title, body, data, read, sent_at, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, FALSE, NULL, NOW())
		ON CONFLICT (user_id, type, channel, match_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, n := range notifications {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal notification data: %w", err)
		}
		batch.Queue(query, n.UserID, n.MatchID, n.Type, n.Channel, n.Title, n.Body, data)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range notifications {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert notification: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

const notificationColumns = `id, user_id, match_id, type, channel, title, body, data, read, sent_at, created_at`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	var data []byte
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.MatchID,
		&n.Type,
		&n.Channel,
		&n.Title,
		&n.Body,
		&data,
		&n.Read,
		&n.SentAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
		}
	}
	return &n, nil
}

// FetchUnsent returns up to limit undelivered notifications of one
// channel, oldest first. `sent_at IS NULL` is the retry queue: failed
// sends stay in it until they succeed.
func (r *Repository) FetchUnsent(ctx context.Context, channel models.Channel, limit int) ([]models.Notification, error) {
	const query = `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE channel = $1 AND sent_at IS NULL
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return out, nil
}

// MarkSent records delivery confirmation.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	const query = `UPDATE notifications SET sent_at = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, sentAt)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkRead marks an in-app notification as read by its owner.
func (r *Repository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// CountUnread returns a user's unread in-app notification count.
func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND channel = $2 AND NOT read`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, models.ChannelInApp).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// EmailForUser resolves a user's email address from the account store.
func (r *Repository) EmailForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	const query = `SELECT email FROM users WHERE id = $1`

	var email string
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("no account for user %s", userID)
		}
		return "", fmt.Errorf("failed to look up user email: %w", err)
	}
	return email, nil
}
