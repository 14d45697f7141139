package feedback

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("feedback not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, userID int64, message string) (Feedback, error) {
	var f Feedback
	err := r.DB.QueryRow(ctx, `
		INSERT INTO feedback (user_id, message, status)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, message, admin_reply, status, created_at, updated_at`,
		userID, message, StatusPending,
	).Scan(&f.ID, &f.UserID, &f.Message, &f.AdminReply, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return Feedback{}, err
	}
	return f, nil
}

// CreateAdminMessage records an admin-initiated message in the user's
// conversation; the notifier worker uses this for order status notices.
func (r *Repo) CreateAdminMessage(ctx context.Context, userID int64, message string) (Feedback, error) {
	var f Feedback
	err := r.DB.QueryRow(ctx, `
		INSERT INTO feedback (user_id, message, status)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, message, admin_reply, status, created_at, updated_at`,
		userID, message, StatusAdminSent,
	).Scan(&f.ID, &f.UserID, &f.Message, &f.AdminReply, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return Feedback{}, err
	}
	return f, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Feedback, error) {
	return r.list(ctx, `
		SELECT f.id, f.user_id, u.username, f.message, f.admin_reply, f.status, f.created_at, f.updated_at
		FROM feedback f JOIN users u ON f.user_id = u.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, userID)
}

func (r *Repo) ListAll(ctx context.Context) ([]Feedback, error) {
	return r.list(ctx, `
		SELECT f.id, f.user_id, u.username, f.message, f.admin_reply, f.status, f.created_at, f.updated_at
		FROM feedback f JOIN users u ON f.user_id = u.id
		ORDER BY f.created_at DESC`)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Feedback, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Feedback{}
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Username, &f.Message, &f.AdminReply, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) Reply(ctx context.Context, id int64, reply string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE feedback SET admin_reply = $1, status = $2, updated_at = now()
		WHERE id = $3`, reply, StatusProcessed, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE feedback SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UsersWithFeedback lists the distinct users that have a conversation.
func (r *Repo) UsersWithFeedback(ctx context.Context) ([]UserRef, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT DISTINCT u.id, u.username
		FROM users u JOIN feedback f ON u.id = f.user_id
		ORDER BY u.username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UserRef{}
	for rows.Next() {
		var u UserRef
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
