package votes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrVoteNotFound  = errors.New("vote not found")
	ErrInvalidOption = errors.New("option is not part of this vote")
	ErrAlreadyVoted  = errors.New("user has already voted")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, title, description string, options OptionSet, createdBy int64) (Vote, error) {
	encoded, err := json.Marshal(options)
	if err != nil {
		return Vote{}, err
	}
	v := Vote{Title: title, Description: description, Options: options, CreatedBy: &createdBy}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO votes (title, description, options, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		title, description, encoded, createdBy,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return Vote{}, err
	}
	return v, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (Vote, error) {
	return scanVote(r.DB.QueryRow(ctx, `
		SELECT id, title, description, options, created_by, created_at
		FROM votes WHERE id = $1`, id))
}

func (r *Repo) List(ctx context.Context) ([]Vote, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, title, description, options, created_by, created_at
		FROM votes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Cast records one user's ballot. The UNIQUE (vote_id, user_id) constraint is
// the authority on duplicates; two concurrent casts cannot both land.
func (r *Repo) Cast(ctx context.Context, voteID, userID int64, option string) (Ballot, error) {
	v, err := r.Get(ctx, voteID)
	if err != nil {
		return Ballot{}, err
	}
	if !v.Options.Contains(option) {
		return Ballot{}, fmt.Errorf("%q: %w", option, ErrInvalidOption)
	}

	b := Ballot{VoteID: voteID, UserID: userID, Option: option}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO ballots (vote_id, user_id, chosen_option)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		voteID, userID, option,
	).Scan(&b.ID, &b.CreatedAt)
	if isUniqueViolation(err) {
		return Ballot{}, ErrAlreadyVoted
	}
	if err != nil {
		return Ballot{}, err
	}
	return b, nil
}

// Tally counts ballots per option and zero-fills the declared option set.
func (r *Repo) Tally(ctx context.Context, v Vote) (Result, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT chosen_option, COUNT(*)
		FROM ballots WHERE vote_id = $1
		GROUP BY chosen_option`, v.ID)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			option string
			n      int
		)
		if err := rows.Scan(&option, &n); err != nil {
			return Result{}, err
		}
		counts[option] = n
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}

	tally, total := zeroFillTally(v.Options, counts)
	return Result{Vote: v, Tally: tally, TotalVotes: total}, nil
}

func scanVote(row pgx.Row) (Vote, error) {
	var (
		v       Vote
		encoded []byte
	)
	err := row.Scan(&v.ID, &v.Title, &v.Description, &encoded, &v.CreatedBy, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vote{}, ErrVoteNotFound
	}
	if err != nil {
		return Vote{}, err
	}
	if err := json.Unmarshal(encoded, &v.Options); err != nil {
		return Vote{}, fmt.Errorf("decode options: %w", err)
	}
	return v, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
