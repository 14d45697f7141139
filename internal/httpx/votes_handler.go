package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"community-portal/internal/auth"
	"community-portal/internal/events"
	kafkax "community-portal/internal/kafka"
	"community-portal/internal/redisx"
	"community-portal/internal/votes"
)

type VoteStore interface {
	Create(ctx context.Context, title, description string, options votes.OptionSet, createdBy int64) (votes.Vote, error)
	Get(ctx context.Context, id int64) (votes.Vote, error)
	List(ctx context.Context) ([]votes.Vote, error)
	Cast(ctx context.Context, voteID, userID int64, option string) (votes.Ballot, error)
	Tally(ctx context.Context, v votes.Vote) (votes.Result, error)
}

type VotesHandler struct {
	Store    VoteStore
	Redis    *redis.Client
	Producer *kafkax.Producer
	Service  string
	Logger   *zap.SugaredLogger
}

type createVoteRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Options     []string `json:"options" validate:"required"`
}

type castBallotRequest struct {
	Option string `json:"option" validate:"required"`
}

func (h *VotesHandler) create(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	var req createVoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "title and options are required")
		return
	}
	options, err := votes.NormalizeOptions(req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.Store.Create(r.Context(), req.Title, req.Description, options, ident.UserID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.publish(r, events.TopicVoteCreated, events.EventVoteCreated, v.ID, events.VoteCreatedPayload{
		VoteID:  v.ID,
		Title:   v.Title,
		Options: v.Options,
	})
	writeJSON(w, http.StatusCreated, v)
}

func (h *VotesHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	results := make([]votes.Result, 0, len(list))
	for _, v := range list {
		res, err := h.tallyCached(r.Context(), v)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *VotesHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	v, err := h.Store.Get(r.Context(), id)
	if errors.Is(err, votes.ErrVoteNotFound) {
		writeError(w, http.StatusNotFound, "vote not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	res, err := h.tallyCached(r.Context(), v)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *VotesHandler) cast(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req castBallotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "option is required")
		return
	}

	b, err := h.Store.Cast(r.Context(), id, ident.UserID, req.Option)
	switch {
	case errors.Is(err, votes.ErrVoteNotFound):
		writeError(w, http.StatusNotFound, "vote not found")
		return
	case errors.Is(err, votes.ErrInvalidOption):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, votes.ErrAlreadyVoted):
		writeError(w, http.StatusConflict, "you have already voted")
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}

	// a cast invalidates the cached tally
	_ = h.Redis.Del(r.Context(), fmt.Sprintf(redisx.KeyVoteTally, id)).Err()

	h.publish(r, events.TopicBallotCast, events.EventBallotCast, id, events.BallotCastPayload{
		VoteID: id,
		UserID: ident.UserID,
		Option: req.Option,
	})
	writeJSON(w, http.StatusCreated, b)
}

func (h *VotesHandler) tallyCached(ctx context.Context, v votes.Vote) (votes.Result, error) {
	key := fmt.Sprintf(redisx.KeyVoteTally, v.ID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		var res votes.Result
		if json.Unmarshal([]byte(s), &res) == nil {
			return res, nil
		}
	}

	res, err := h.Store.Tally(ctx, v)
	if err != nil {
		return votes.Result{}, err
	}
	_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(res), redisx.TTLTallyCache).Err()
	return res, nil
}

func (h *VotesHandler) publish(r *http.Request, topic, eventType string, voteID int64, payload any) {
	env := events.NewEnvelope(eventType, h.Service, r.Header.Get("X-Request-Id"), fmt.Sprintf("%d", voteID), payload)
	h.Producer.Publish(topic, events.PartitionKey(voteID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *VotesHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "server error")
}
