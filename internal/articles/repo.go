package articles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("article not found")
	ErrInvalidCategory = errors.New("invalid article category")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) List(ctx context.Context, category Category) ([]Article, error) {
	q := `SELECT id, title, content, image_url, category, created_at, updated_at
	      FROM articles`
	args := []any{}
	if category != "" {
		if !ValidCategory(category) {
			return nil, ErrInvalidCategory
		}
		q += ` WHERE category = $1`
		args = append(args, category)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Article{}
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.Category, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (Article, error) {
	var a Article
	err := r.DB.QueryRow(ctx, `
		SELECT id, title, content, image_url, category, created_at, updated_at
		FROM articles WHERE id = $1`, id,
	).Scan(&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.Category, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	if err != nil {
		return Article{}, err
	}
	return a, nil
}

func (r *Repo) Create(ctx context.Context, in ArticleInput) (Article, error) {
	if !ValidCategory(in.Category) {
		return Article{}, ErrInvalidCategory
	}
	var a Article
	err := r.DB.QueryRow(ctx, `
		INSERT INTO articles (title, content, image_url, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, content, image_url, category, created_at, updated_at`,
		in.Title, in.Content, in.ImageURL, in.Category,
	).Scan(&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.Category, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Article{}, err
	}
	return a, nil
}

func (r *Repo) Update(ctx context.Context, id int64, in ArticleInput) (Article, error) {
	if !ValidCategory(in.Category) {
		return Article{}, ErrInvalidCategory
	}
	var a Article
	err := r.DB.QueryRow(ctx, `
		UPDATE articles
		SET title = $1, content = $2, image_url = $3, category = $4, updated_at = now()
		WHERE id = $5
		RETURNING id, title, content, image_url, category, created_at, updated_at`,
		in.Title, in.Content, in.ImageURL, in.Category, id,
	).Scan(&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.Category, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	if err != nil {
		return Article{}, err
	}
	return a, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
