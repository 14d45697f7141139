package httpx_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"community-portal/internal/auth"
	"community-portal/internal/canteen"
	"community-portal/internal/httpx"
	kafkax "community-portal/internal/kafka"
	"community-portal/internal/redisx"
	"community-portal/internal/votes"
)

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// canteenStub satisfies httpx.CanteenStore; only the funcs a test sets are
// expected to run.
type canteenStub struct {
	checkout     func(userID int64, cart []canteen.CartLine) (canteen.Order, error)
	getOrder     func(id int64) (canteen.Order, error)
	updateStatus func(id int64, to canteen.Status) (canteen.Order, canteen.Status, error)
}

func (s *canteenStub) ListMenu(context.Context, bool) ([]canteen.MenuItem, error) {
	return []canteen.MenuItem{}, nil
}
func (s *canteenStub) CreateMenuItem(_ context.Context, in canteen.MenuItemInput) (canteen.MenuItem, error) {
	return canteen.MenuItem{ID: 1, Name: in.Name, Price: in.Price, Available: in.Available}, nil
}
func (s *canteenStub) UpdateMenuItem(context.Context, int64, canteen.MenuItemInput) (canteen.MenuItem, error) {
	return canteen.MenuItem{}, canteen.ErrItemNotFound
}
func (s *canteenStub) DeleteMenuItem(context.Context, int64) error { return canteen.ErrItemNotFound }
func (s *canteenStub) Checkout(_ context.Context, userID int64, cart []canteen.CartLine) (canteen.Order, error) {
	return s.checkout(userID, cart)
}
func (s *canteenStub) GetOrder(_ context.Context, id int64) (canteen.Order, error) {
	return s.getOrder(id)
}
func (s *canteenStub) ListOrdersByUser(context.Context, int64) ([]canteen.Order, error) {
	return []canteen.Order{}, nil
}
func (s *canteenStub) ListAllOrders(context.Context) ([]canteen.Order, error) {
	return []canteen.Order{}, nil
}
func (s *canteenStub) UpdateStatus(_ context.Context, id int64, to canteen.Status) (canteen.Order, canteen.Status, error) {
	return s.updateStatus(id, to)
}

type voteStub struct {
	get   func(id int64) (votes.Vote, error)
	cast  func(voteID, userID int64, option string) (votes.Ballot, error)
	tally func(v votes.Vote) (votes.Result, error)
}

func (s *voteStub) Create(_ context.Context, title, description string, options votes.OptionSet, createdBy int64) (votes.Vote, error) {
	return votes.Vote{ID: 1, Title: title, Description: description, Options: options, CreatedBy: &createdBy}, nil
}
func (s *voteStub) Get(_ context.Context, id int64) (votes.Vote, error) { return s.get(id) }
func (s *voteStub) List(context.Context) ([]votes.Vote, error)         { return []votes.Vote{}, nil }
func (s *voteStub) Cast(_ context.Context, voteID, userID int64, option string) (votes.Ballot, error) {
	return s.cast(voteID, userID, option)
}
func (s *voteStub) Tally(_ context.Context, v votes.Vote) (votes.Result, error) { return s.tally(v) }

// newTestServer builds the full route tree with injected identity. A nil
// identity makes every authenticated route answer 401.
func newTestServer(t *testing.T, ident *auth.Identity, cs httpx.CanteenStore, vs httpx.VoteStore) http.Handler {
	t.Helper()

	logger := zap.NewNop().Sugar()
	rdb := redisx.New("127.0.0.1:1") // no server; cache misses and ignored write errors
	prod := kafkax.NewProducer([]string{"127.0.0.1:9092"}, 64)

	authenticate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ident == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), *ident)))
		})
	}

	s := &httpx.Server{
		Auth:     &httpx.AuthHandler{Logger: logger},
		Articles: &httpx.ArticlesHandler{Logger: logger},
		Canteen: &httpx.CanteenHandler{
			Store: cs, Redis: rdb, Producer: prod, Service: "test", Logger: logger,
		},
		Feedback: &httpx.FeedbackHandler{Logger: logger},
		Votes: &httpx.VotesHandler{
			Store: vs, Redis: rdb, Producer: prod, Service: "test", Logger: logger,
		},
		Health:       &httpx.HealthHandler{},
		Authenticate: authenticate,
		RequireAdmin: auth.RequireRole(auth.RoleAdmin),
	}
	return s.Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func TestCreateOrderValidation(t *testing.T) {
	user := &auth.Identity{UserID: 5, Role: auth.RoleUser}
	cs := &canteenStub{
		checkout: func(userID int64, cart []canteen.CartLine) (canteen.Order, error) {
			if len(cart) == 0 {
				return canteen.Order{}, canteen.ErrEmptyCart
			}
			return canteen.Order{}, fmt.Errorf("menu item %d: %w", cart[0].MenuItemID, canteen.ErrItemNotFound)
		},
	}
	h := newTestServer(t, user, cs, &voteStub{})

	rec, body := doJSON(t, h, http.MethodPost, "/canteen/order", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "empty")

	rec, _ = doJSON(t, h, http.MethodPost, "/canteen/order", `{"items":[{"menuItemId":99999,"quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrderSuccess(t *testing.T) {
	user := &auth.Identity{UserID: 5, Role: auth.RoleUser}
	cs := &canteenStub{
		checkout: func(userID int64, cart []canteen.CartLine) (canteen.Order, error) {
			require.Equal(t, int64(5), userID)
			return canteen.Order{
				ID: 11, UserID: userID, Status: canteen.StatusPending,
				TotalPrice: mustDec("34.90"),
				Lines: []canteen.OrderLine{
					{ID: 1, OrderID: 11, MenuItemID: 1, Quantity: 2, UnitPrice: mustDec("12.50"), LineTotal: mustDec("25.00")},
					{ID: 2, OrderID: 11, MenuItemID: 2, Quantity: 3, UnitPrice: mustDec("3.30"), LineTotal: mustDec("9.90")},
				},
			}, nil
		},
	}
	h := newTestServer(t, user, cs, &voteStub{})

	rec, body := doJSON(t, h, http.MethodPost, "/canteen/order",
		`{"items":[{"menuItemId":1,"quantity":2},{"menuItemId":2,"quantity":3}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(11), body["orderId"])

	total, err := decimal.NewFromString(body["totalPrice"].(string))
	require.NoError(t, err)
	assert.True(t, total.Equal(mustDec("34.90")))
	assert.Len(t, body["details"], 2)
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	h := newTestServer(t, nil, &canteenStub{}, &voteStub{})
	rec, _ := doJSON(t, h, http.MethodPost, "/canteen/order", `{"items":[{"menuItemId":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	admin := &auth.Identity{UserID: 1, Role: auth.RoleAdmin}
	user := &auth.Identity{UserID: 5, Role: auth.RoleUser}

	cs := &canteenStub{
		updateStatus: func(id int64, to canteen.Status) (canteen.Order, canteen.Status, error) {
			switch id {
			case 404:
				return canteen.Order{}, "", canteen.ErrOrderNotFound
			case 7:
				return canteen.Order{}, "", fmt.Errorf("completed -> %s: %w", to, canteen.ErrInvalidTransition)
			}
			return canteen.Order{ID: id, UserID: 5, Status: to}, canteen.StatusPending, nil
		},
	}

	t.Run("forbidden for plain users", func(t *testing.T) {
		h := newTestServer(t, user, cs, &voteStub{})
		rec, _ := doJSON(t, h, http.MethodPut, "/canteen/orders/1", `{"status":"confirmed"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin transitions pending order", func(t *testing.T) {
		h := newTestServer(t, admin, cs, &voteStub{})
		rec, body := doJSON(t, h, http.MethodPut, "/canteen/orders/1", `{"status":"confirmed"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "confirmed", body["status"])
	})

	t.Run("terminal order rejects transition", func(t *testing.T) {
		h := newTestServer(t, admin, cs, &voteStub{})
		rec, _ := doJSON(t, h, http.MethodPut, "/canteen/orders/7", `{"status":"confirmed"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown order is 404", func(t *testing.T) {
		h := newTestServer(t, admin, cs, &voteStub{})
		rec, _ := doJSON(t, h, http.MethodPut, "/canteen/orders/404", `{"status":"confirmed"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown target status is 400", func(t *testing.T) {
		h := newTestServer(t, admin, cs, &voteStub{})
		rec, _ := doJSON(t, h, http.MethodPut, "/canteen/orders/1", `{"status":"shipped"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetOrderStatusOwnership(t *testing.T) {
	cs := &canteenStub{
		getOrder: func(id int64) (canteen.Order, error) {
			if id == 404 {
				return canteen.Order{}, canteen.ErrOrderNotFound
			}
			return canteen.Order{ID: id, UserID: 5, Status: canteen.StatusConfirmed}, nil
		},
	}

	t.Run("owner reads their own status", func(t *testing.T) {
		h := newTestServer(t, &auth.Identity{UserID: 5, Role: auth.RoleUser}, cs, &voteStub{})
		rec, body := doJSON(t, h, http.MethodGet, "/canteen/orders/1/status", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "confirmed", body["status"])
	})

	t.Run("another user is forbidden", func(t *testing.T) {
		h := newTestServer(t, &auth.Identity{UserID: 6, Role: auth.RoleUser}, cs, &voteStub{})
		rec, _ := doJSON(t, h, http.MethodGet, "/canteen/orders/1/status", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin reads any status", func(t *testing.T) {
		h := newTestServer(t, &auth.Identity{UserID: 1, Role: auth.RoleAdmin}, cs, &voteStub{})
		rec, body := doJSON(t, h, http.MethodGet, "/canteen/orders/1/status", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "confirmed", body["status"])
	})

	t.Run("unknown order is 404", func(t *testing.T) {
		h := newTestServer(t, &auth.Identity{UserID: 5, Role: auth.RoleUser}, cs, &voteStub{})
		rec, _ := doJSON(t, h, http.MethodGet, "/canteen/orders/404/status", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCastBallot(t *testing.T) {
	user := &auth.Identity{UserID: 9, Role: auth.RoleUser}
	vs := &voteStub{
		cast: func(voteID, userID int64, option string) (votes.Ballot, error) {
			switch {
			case voteID == 404:
				return votes.Ballot{}, votes.ErrVoteNotFound
			case option == "C":
				return votes.Ballot{}, fmt.Errorf("%q: %w", option, votes.ErrInvalidOption)
			case userID == 9 && option == "again":
				return votes.Ballot{}, votes.ErrAlreadyVoted
			}
			return votes.Ballot{ID: 1, VoteID: voteID, UserID: userID, Option: option}, nil
		},
	}
	h := newTestServer(t, user, &canteenStub{}, vs)

	rec, _ := doJSON(t, h, http.MethodPost, "/votes/3/vote", `{"option":"A"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/votes/3/vote", `{"option":"C"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/votes/3/vote", `{"option":"again"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/votes/404/vote", `{"option":"A"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/votes/3/vote", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetVoteTally(t *testing.T) {
	vs := &voteStub{
		get: func(id int64) (votes.Vote, error) {
			if id != 3 {
				return votes.Vote{}, votes.ErrVoteNotFound
			}
			return votes.Vote{ID: 3, Title: "Lunch poll", Options: votes.OptionSet{"A", "B", "C"}}, nil
		},
		tally: func(v votes.Vote) (votes.Result, error) {
			return votes.Result{
				Vote:       v,
				Tally:      []votes.OptionCount{{Option: "A", Count: 1}, {Option: "B", Count: 0}, {Option: "C", Count: 0}},
				TotalVotes: 1,
			}, nil
		},
	}
	h := newTestServer(t, nil, &canteenStub{}, vs)

	rec, body := doJSON(t, h, http.MethodGet, "/votes/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["totalVotes"])

	tally, ok := body["tally"].([]any)
	require.True(t, ok)
	require.Len(t, tally, 3)
	first := tally[0].(map[string]any)
	assert.Equal(t, "A", first["option"])
	assert.Equal(t, float64(1), first["count"])

	rec, _ = doJSON(t, h, http.MethodGet, "/votes/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicMenu(t *testing.T) {
	h := newTestServer(t, nil, &canteenStub{}, &voteStub{})
	rec, _ := doJSON(t, h, http.MethodGet, "/canteen/menu", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
