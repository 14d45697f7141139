package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"community-portal/internal/auth"
	"community-portal/internal/canteen"
	"community-portal/internal/events"
	kafkax "community-portal/internal/kafka"
	"community-portal/internal/redisx"
)

type CanteenStore interface {
	ListMenu(ctx context.Context, includeUnavailable bool) ([]canteen.MenuItem, error)
	CreateMenuItem(ctx context.Context, in canteen.MenuItemInput) (canteen.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, in canteen.MenuItemInput) (canteen.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error
	Checkout(ctx context.Context, userID int64, cart []canteen.CartLine) (canteen.Order, error)
	GetOrder(ctx context.Context, id int64) (canteen.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]canteen.Order, error)
	ListAllOrders(ctx context.Context) ([]canteen.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, to canteen.Status) (canteen.Order, canteen.Status, error)
}

type CanteenHandler struct {
	Store    CanteenStore
	Redis    *redis.Client
	Producer *kafkax.Producer
	Service  string
	Logger   *zap.SugaredLogger
}

type createOrderRequest struct {
	Items []canteen.CartLine `json:"items"`
}

type createOrderResponse struct {
	OrderID    int64               `json:"orderId"`
	TotalPrice string              `json:"totalPrice"`
	Details    []canteen.OrderLine `json:"details"`
}

type updateOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

// ---- menu ----

func (h *CanteenHandler) listMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListMenu(r.Context(), false)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CanteenHandler) listMenuAdmin(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListMenu(r.Context(), true)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CanteenHandler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var in canteen.MenuItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(in); err != nil || !in.Price.IsPositive() {
		writeError(w, http.StatusBadRequest, "name and a positive price are required")
		return
	}
	item, err := h.Store.CreateMenuItem(r.Context(), in)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *CanteenHandler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in canteen.MenuItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(in); err != nil || !in.Price.IsPositive() {
		writeError(w, http.StatusBadRequest, "name and a positive price are required")
		return
	}
	item, err := h.Store.UpdateMenuItem(r.Context(), id, in)
	if errors.Is(err, canteen.ErrItemNotFound) {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CanteenHandler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	err := h.Store.DeleteMenuItem(r.Context(), id)
	if errors.Is(err, canteen.ErrItemNotFound) {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "menu item deleted"})
}

// ---- orders ----

func (h *CanteenHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	order, err := h.Store.Checkout(r.Context(), id.UserID, req.Items)
	switch {
	case errors.Is(err, canteen.ErrEmptyCart), errors.Is(err, canteen.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, canteen.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, canteen.ErrItemUnavailable):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}

	h.cacheStatus(r.Context(), order)

	lines := make([]events.OrderLineRef, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, events.OrderLineRef{
			MenuItemID: l.MenuItemID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice.String(),
		})
	}
	h.publish(r, events.TopicOrderCreated, events.EventOrderCreated, order.ID, events.OrderCreatedPayload{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice.String(),
		Lines:      lines,
	})

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:    order.ID,
		TotalPrice: order.TotalPrice.String(),
		Details:    order.Lines,
	})
}

func (h *CanteenHandler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	orders, err := h.Store.ListOrdersByUser(r.Context(), id.UserID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *CanteenHandler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListAllOrders(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// getOrder returns an order with its lines; users see their own orders,
// admin-equivalent roles see every order.
func (h *CanteenHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	order, err := h.Store.GetOrder(r.Context(), id)
	if errors.Is(err, canteen.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if order.UserID != ident.UserID && !ident.Role.AtLeast(auth.RoleAdmin) {
		writeError(w, http.StatusForbidden, "not your order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *CanteenHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req updateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	to, err := canteen.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, from, err := h.Store.UpdateStatus(r.Context(), id, to)
	switch {
	case errors.Is(err, canteen.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
		return
	case errors.Is(err, canteen.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}

	h.cacheStatus(r.Context(), order)
	h.publish(r, events.TopicOrderStatusChanged, events.EventOrderStatusChanged, order.ID, events.OrderStatusChangedPayload{
		OrderID:   order.ID,
		UserID:    order.UserID,
		OldStatus: string(from),
		NewStatus: string(order.Status),
	})

	writeJSON(w, http.StatusOK, order)
}

// getOrderStatus serves the status from cache when possible; the database
// stays the source of truth. Access follows the getOrder rule: owners and
// admin-equivalent roles only. The cached value carries the owner id so a
// cache hit can still be authorized.
func (h *CanteenHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil {
		if owner, status, ok := splitStatusCache(s); ok {
			if owner != ident.UserID && !ident.Role.AtLeast(auth.RoleAdmin) {
				writeError(w, http.StatusForbidden, "not your order")
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": status})
			return
		}
	}

	order, err := h.Store.GetOrder(r.Context(), id)
	if errors.Is(err, canteen.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if order.UserID != ident.UserID && !ident.Role.AtLeast(auth.RoleAdmin) {
		writeError(w, http.StatusForbidden, "not your order")
		return
	}
	h.cacheStatus(r.Context(), order)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(order.Status)})
}

func (h *CanteenHandler) cacheStatus(ctx context.Context, order canteen.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, order.ID)
	val := fmt.Sprintf("%d:%s", order.UserID, order.Status)
	_ = h.Redis.Set(ctx, key, val, redisx.TTLStatusCache).Err()
}

// splitStatusCache parses a cached "ownerID:status" value. Malformed or
// legacy entries fail the parse and fall through to the database.
func splitStatusCache(s string) (int64, string, bool) {
	owner, status, ok := strings.Cut(s, ":")
	if !ok || status == "" {
		return 0, "", false
	}
	id, err := strconv.ParseInt(owner, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, status, true
}

func (h *CanteenHandler) publish(r *http.Request, topic, eventType string, orderID int64, payload any) {
	env := events.NewEnvelope(eventType, h.Service, r.Header.Get("X-Request-Id"), fmt.Sprintf("%d", orderID), payload)
	h.Producer.Publish(topic, events.PartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *CanteenHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "server error")
}
