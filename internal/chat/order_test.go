package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rasoi/chaatbot/internal/domain"
	"github.com/rasoi/chaatbot/internal/llm"
	"github.com/rasoi/chaatbot/internal/session"
)

func newOrderEngine(t *testing.T, orders *MockOrderRepository, menu *MockMenuRepository) (*OrderEngine, *session.Manager) {
	t.Helper()
	sessions := newTestSessions()
	now := func() time.Time { return fixedNow(t) }
	return NewOrderEngine(orders, menu, sessions, nil, "http://localhost:3000/", now), sessions
}

func TestOrderEngine_Start(t *testing.T) {
	ctx := context.Background()
	user := domain.CurrentUser{ID: uuid.New(), Authenticated: true}

	t.Run("creates an order and stores the id", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))

		orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Order).ID = 101
		}).Return(nil)

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{}, []llm.ToolCall{
			call("start_order", map[string]any{}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "Order ID: 101")
		assert.False(t, out.Terminal)

		oc, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Equal(t, int64(101), oc.OrderID)
	})

	t.Run("duplicate start for an in-progress order is ignored", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, _ := newOrderEngine(t, orders, new(MockMenuRepository))

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)

		_, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("start_order", map[string]any{}),
		})
		// the duplicate start is skipped and the batch has nothing else to run
		require.ErrorIs(t, err, errNoActionableTool)
		orders.AssertNotCalled(t, "Create")
	})

	t.Run("start after a confirmed order begins a fresh context", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55, IsConfirmed: true}, nil)
		orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Order).ID = 102
		}).Return(nil)

		oc := &session.OrderContext{OrderID: 55, IsConfirmed: true, PaymentMethod: "cod"}
		out, err := engine.Dispatch(ctx, "session_a", user, oc, []llm.ToolCall{
			call("start_order", map[string]any{}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "Order ID: 102")

		saved, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Equal(t, int64(102), saved.OrderID)
		assert.False(t, saved.IsConfirmed)
		assert.Empty(t, saved.PaymentMethod)
	})

	t.Run("stale order id in cache starts fresh", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, _ := newOrderEngine(t, orders, new(MockMenuRepository))

		orders.On("Get", ctx, int64(55)).Return(nil, domain.ErrNotFound)
		orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Order).ID = 103
		}).Return(nil)

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("start_order", map[string]any{}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "Order ID: 103")
	})
}

func TestOrderEngine_ConfirmedLock(t *testing.T) {
	ctx := context.Background()
	user := domain.CurrentUser{ID: uuid.New(), Authenticated: true}

	t.Run("mutations on a confirmed order are refused", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, _ := newOrderEngine(t, orders, new(MockMenuRepository))

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55, IsConfirmed: true}, []llm.ToolCall{
			call("add_order_item", map[string]any{"menuitem_title": "Samosa", "quantity": 2}),
		})
		require.NoError(t, err)
		assert.True(t, out.Terminal)
		assert.Nil(t, out.FunctionTurn)
		assert.Contains(t, out.Reply, "already confirmed")
	})

	t.Run("a payment confirmed via the frontend is reconciled from the database", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))

		// the cached context still says unconfirmed
		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55, IsConfirmed: true}, nil)

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("add_order_item", map[string]any{"menuitem_title": "Samosa", "quantity": 2}),
		})
		require.NoError(t, err)
		assert.True(t, out.Terminal)
		assert.Contains(t, out.Reply, "already confirmed")

		saved, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		assert.True(t, saved.IsConfirmed)
	})
}

func TestOrderEngine_AddItem(t *testing.T) {
	ctx := context.Background()
	user := domain.CurrentUser{ID: uuid.New(), Authenticated: true}
	samosa := &domain.MenuItem{ID: 7, Title: "Samosa", Price: 30}

	t.Run("adding the same item twice is additive", func(t *testing.T) {
		orders := new(MockOrderRepository)
		menu := new(MockMenuRepository)
		engine, sessions := newOrderEngine(t, orders, menu)

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		menu.On("GetItemByTitle", ctx, "Samosa").Return(samosa, nil)
		orders.On("GetItem", ctx, int64(55), int64(7)).Return(&domain.OrderItem{
			OrderID: 55, MenuItemID: 7, Title: "Samosa", Quantity: 2, Price: 60,
		}, nil)
		orders.On("UpsertItem", ctx, mock.MatchedBy(func(it *domain.OrderItem) bool {
			return it.Quantity == 4 && it.Price == 120
		})).Return(nil)
		orders.On("ListItems", ctx, int64(55)).Return([]domain.OrderItem{
			{OrderID: 55, MenuItemID: 7, Title: "Samosa", Quantity: 4, Price: 120},
		}, nil)

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("add_order_item", map[string]any{"menuitem_title": "Samosa", "quantity": 2}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "now 4 total")
		orders.AssertExpectations(t)

		saved, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		require.Len(t, saved.Items, 1)
		assert.Equal(t, 4, saved.Items[0].Qty)
	})

	t.Run("unknown item is reported, not an error", func(t *testing.T) {
		orders := new(MockOrderRepository)
		menu := new(MockMenuRepository)
		engine, _ := newOrderEngine(t, orders, menu)

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		menu.On("GetItemByTitle", ctx, "Pizza").Return(nil, domain.ErrNotFound)

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("add_order_item", map[string]any{"menuitem_title": "Pizza", "quantity": 1}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "not found in our menu")
		orders.AssertNotCalled(t, "UpsertItem")
	})

	t.Run("no active order prompts a start", func(t *testing.T) {
		engine, _ := newOrderEngine(t, new(MockOrderRepository), new(MockMenuRepository))

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{}, []llm.ToolCall{
			call("add_order_item", map[string]any{"menuitem_title": "Samosa", "quantity": 1}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "no active order")
	})
}

func TestOrderEngine_ReviseItem(t *testing.T) {
	ctx := context.Background()
	user := domain.CurrentUser{ID: uuid.New(), Authenticated: true}
	samosa := &domain.MenuItem{ID: 7, Title: "Samosa", Price: 30}

	t.Run("quantity zero removes the line", func(t *testing.T) {
		orders := new(MockOrderRepository)
		menu := new(MockMenuRepository)
		engine, _ := newOrderEngine(t, orders, menu)

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		menu.On("GetItemByTitle", ctx, "Samosa").Return(samosa, nil)
		orders.On("GetItem", ctx, int64(55), int64(7)).Return(&domain.OrderItem{
			OrderID: 55, MenuItemID: 7, Title: "Samosa", Quantity: 2, Price: 60,
		}, nil)
		orders.On("DeleteItem", ctx, int64(55), int64(7)).Return(nil)
		orders.On("ListItems", ctx, int64(55)).Return([]domain.OrderItem{}, nil)

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("revise_order_item", map[string]any{"menuitem_title": "Samosa", "quantity": 0}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "removed")
		orders.AssertExpectations(t)
	})

	t.Run("revision replaces the quantity instead of adding", func(t *testing.T) {
		orders := new(MockOrderRepository)
		menu := new(MockMenuRepository)
		engine, _ := newOrderEngine(t, orders, menu)

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		menu.On("GetItemByTitle", ctx, "Samosa").Return(samosa, nil)
		orders.On("GetItem", ctx, int64(55), int64(7)).Return(&domain.OrderItem{
			OrderID: 55, MenuItemID: 7, Title: "Samosa", Quantity: 4, Price: 120,
		}, nil)
		orders.On("UpsertItem", ctx, mock.MatchedBy(func(it *domain.OrderItem) bool {
			return it.Quantity == 1 && it.Price == 30
		})).Return(nil)
		orders.On("ListItems", ctx, int64(55)).Return([]domain.OrderItem{
			{OrderID: 55, MenuItemID: 7, Title: "Samosa", Quantity: 1, Price: 30},
		}, nil)

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("revise_order_item", map[string]any{"menuitem_title": "Samosa", "quantity": 1}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "updated to 1")
	})
}

func TestOrderEngine_DeliverySlots(t *testing.T) {
	ctx := context.Background()
	user := domain.CurrentUser{ID: uuid.New(), Authenticated: true}

	t.Run("today filters past slots and keeps ASAP", func(t *testing.T) {
		orders := new(MockOrderRepository)
		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("available_delivery_slots", map[string]any{"delivery_date": "today"}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "ASAP")

		oc, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Contains(t, oc.AvailableSlots, SlotASAP)
		assert.NotContains(t, oc.AvailableSlots, "11:00")
	})

	t.Run("fetching slots for a new date clears the chosen slot", func(t *testing.T) {
		orders := new(MockOrderRepository)
		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))

		oc := &session.OrderContext{
			OrderID:          55,
			DeliveryDate:     "2026-09-01",
			DeliveryTimeSlot: "18:00",
			AvailableSlots:   []string{"18:00", "19:00"},
		}
		_, err := engine.Dispatch(ctx, "session_a", user, oc, []llm.ToolCall{
			call("available_delivery_slots", map[string]any{"delivery_date": "2026-09-02"}),
		})
		require.NoError(t, err)

		saved, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Equal(t, "2026-09-02", saved.DeliveryDate)
		assert.Empty(t, saved.DeliveryTimeSlot)
	})

	t.Run("date change clears the chosen slot", func(t *testing.T) {
		orders := new(MockOrderRepository)
		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))

		oc := &session.OrderContext{
			OrderID:          55,
			DeliveryDate:     "2026-09-01",
			DeliveryTimeSlot: "18:00",
			AvailableSlots:   []string{"18:00", "19:00"},
		}
		out, err := engine.Dispatch(ctx, "session_a", user, oc, []llm.ToolCall{
			call("set_delivery_date", map[string]any{"delivery_date": "2026-09-02"}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "2026-09-02")

		saved, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Equal(t, "2026-09-02", saved.DeliveryDate)
		assert.Empty(t, saved.DeliveryTimeSlot)
		assert.Empty(t, saved.AvailableSlots)
	})

	t.Run("slot not in palette is rejected", func(t *testing.T) {
		orders := new(MockOrderRepository)
		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		engine, _ := newOrderEngine(t, orders, new(MockMenuRepository))

		oc := &session.OrderContext{OrderID: 55, AvailableSlots: []string{"18:00"}}
		out, err := engine.Dispatch(ctx, "session_a", user, oc, []llm.ToolCall{
			call("set_delivery_time_slot", map[string]any{"delivery_time_slot": "09:00"}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "not among the available slots")
	})
}

func TestOrderEngine_TypeAddressPayment(t *testing.T) {
	ctx := context.Background()
	user := domain.CurrentUser{ID: uuid.New(), Authenticated: true}

	t.Run("pickup clears any stored address", func(t *testing.T) {
		orders := new(MockOrderRepository)
		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))

		oc := &session.OrderContext{
			OrderID:         55,
			DeliveryAddress: "12 MG Road",
			DeliveryCity:    "Lucknow",
			DeliveryPin:     "226001",
		}
		_, err := engine.Dispatch(ctx, "session_a", user, oc, []llm.ToolCall{
			call("set_delivery_type", map[string]any{"delivery_type": "Pickup"}),
		})
		require.NoError(t, err)

		saved, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Equal(t, "pickup", saved.DeliveryType)
		assert.Empty(t, saved.DeliveryAddress)
		assert.Empty(t, saved.DeliveryCity)
		assert.Empty(t, saved.DeliveryPin)
	})

	t.Run("unknown payment method is rejected", func(t *testing.T) {
		orders := new(MockOrderRepository)
		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		engine, _ := newOrderEngine(t, orders, new(MockMenuRepository))

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("set_payment_method", map[string]any{"payment_method": "upi"}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "stripe")
		assert.Contains(t, out.Reply, "cod")
	})
}

func TestOrderEngine_Checkout(t *testing.T) {
	ctx := context.Background()
	user := domain.CurrentUser{ID: uuid.New(), Authenticated: true}

	newContext := func() *session.OrderContext {
		return &session.OrderContext{
			OrderID:          55,
			DeliveryDate:     "2026-09-01",
			DeliveryTimeSlot: "18:00",
			DeliveryType:     "delivery",
			DeliveryAddress:  "12 MG Road",
			DeliveryCity:     "Lucknow",
			DeliveryPin:      "226001",
			PaymentMethod:    "stripe",
		}
	}

	t.Run("finalizes the order and emits the checkout iframe", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))
		require.NoError(t, sessions.SetMode(ctx, "session_a", session.ModeOrdering))

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55, UserID: user.ID}, nil)
		orders.On("ListItems", ctx, int64(55)).Return([]domain.OrderItem{
			{Title: "Samosa", Quantity: 4, Price: 120},
			{Title: "Pani Puri", Quantity: 1, Price: 60},
		}, nil)
		orders.On("Update", ctx, mock.MatchedBy(func(o *domain.Order) bool {
			return o.Total == 180 &&
				o.DeliveryType == "delivery" &&
				o.DeliveryTimeSlot == "18:00" &&
				o.PaymentMethod == "stripe" &&
				o.DeliveryAddress == "12 MG Road"
		})).Return(nil)

		out, err := engine.Dispatch(ctx, "session_a", user, newContext(), []llm.ToolCall{
			call("checkout_order", map[string]any{}),
		})
		require.NoError(t, err)
		assert.True(t, out.Terminal)
		assert.Contains(t, out.Reply, "__IFRAME_URL__:http://localhost:3000/bot-orders?order_id=55__")
		assert.Contains(t, out.Reply, "confirmation email")
		orders.AssertExpectations(t)

		mode, err := sessions.Mode(ctx, "session_a")
		require.NoError(t, err)
		assert.Empty(t, mode)
	})

	t.Run("cod checkout skips the email promise", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, _ := newOrderEngine(t, orders, new(MockMenuRepository))

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55, UserID: user.ID}, nil)
		orders.On("ListItems", ctx, int64(55)).Return([]domain.OrderItem{{Title: "Samosa", Quantity: 1, Price: 30}}, nil)
		orders.On("Update", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

		oc := newContext()
		oc.PaymentMethod = "cod"
		out, err := engine.Dispatch(ctx, "session_a", user, oc, []llm.ToolCall{
			call("checkout_order", map[string]any{}),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "__IFRAME_URL__")
		assert.NotContains(t, out.Reply, "confirmation email")
	})

	t.Run("arguments win over context", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, _ := newOrderEngine(t, orders, new(MockMenuRepository))

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55, UserID: user.ID}, nil)
		orders.On("ListItems", ctx, int64(55)).Return([]domain.OrderItem{{Title: "Samosa", Quantity: 1, Price: 30}}, nil)
		orders.On("Update", ctx, mock.MatchedBy(func(o *domain.Order) bool {
			return o.DeliveryType == "pickup" && o.DeliveryAddress == ""
		})).Return(nil)

		_, err := engine.Dispatch(ctx, "session_a", user, newContext(), []llm.ToolCall{
			call("checkout_order", map[string]any{"delivery_type": "pickup"}),
		})
		require.NoError(t, err)
		orders.AssertExpectations(t)
	})

	t.Run("missing upstream slots are re-prompted instead of finalizing", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, _ := newOrderEngine(t, orders, new(MockMenuRepository))

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55, UserID: user.ID}, nil)
		orders.On("ListItems", ctx, int64(55)).Return([]domain.OrderItem{}, nil)

		// only the order id is in context
		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("checkout_order", map[string]any{}),
		})
		require.NoError(t, err)
		assert.False(t, out.Terminal)
		assert.NotContains(t, out.Reply, "__IFRAME_URL__")
		assert.Contains(t, out.Reply, "at least one item")
		assert.Contains(t, out.Reply, "payment method")
		orders.AssertNotCalled(t, "Update")
	})

	t.Run("delivery without an address is re-prompted", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, _ := newOrderEngine(t, orders, new(MockMenuRepository))

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55, UserID: user.ID}, nil)
		orders.On("ListItems", ctx, int64(55)).Return([]domain.OrderItem{{Title: "Samosa", Quantity: 1, Price: 30}}, nil)

		oc := newContext()
		oc.DeliveryAddress, oc.DeliveryCity, oc.DeliveryPin = "", "", ""
		out, err := engine.Dispatch(ctx, "session_a", user, oc, []llm.ToolCall{
			call("checkout_order", map[string]any{}),
		})
		require.NoError(t, err)
		assert.False(t, out.Terminal)
		assert.Contains(t, out.Reply, "delivery address")
		orders.AssertNotCalled(t, "Update")
	})

	t.Run("cod checkout emails the confirmation right away", func(t *testing.T) {
		orders := new(MockOrderRepository)
		mailer := new(MockMailer)
		sessions := newTestSessions()
		now := func() time.Time { return fixedNow(t) }
		engine := NewOrderEngine(orders, new(MockMenuRepository), sessions, mailer, "http://localhost:3000", now)

		codUser := domain.CurrentUser{ID: user.ID, Email: "ramu@example.com", Authenticated: true}
		items := []domain.OrderItem{{Title: "Samosa", Quantity: 1, Price: 30}}
		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55, UserID: user.ID}, nil)
		orders.On("ListItems", ctx, int64(55)).Return(items, nil)
		orders.On("Update", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
		mailer.On("SendOrderConfirmation", "ramu@example.com", mock.AnythingOfType("*domain.Order"), items).Return(nil)

		oc := newContext()
		oc.PaymentMethod = "cod"
		_, err := engine.Dispatch(ctx, "session_a", codUser, oc, []llm.ToolCall{
			call("checkout_order", map[string]any{}),
		})
		require.NoError(t, err)
		mailer.AssertExpectations(t)
	})
}

func TestOrderEngine_Delete(t *testing.T) {
	ctx := context.Background()
	user := domain.CurrentUser{ID: uuid.New(), Authenticated: true}

	t.Run("unconfirmed order is deleted and workflow torn down", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))
		require.NoError(t, sessions.SetMode(ctx, "session_a", session.ModeOrdering))
		require.NoError(t, sessions.SaveOrderContext(ctx, "session_a", &session.OrderContext{OrderID: 55}))

		orders.On("Get", ctx, int64(55)).Return(&domain.Order{ID: 55}, nil)
		orders.On("Delete", ctx, int64(55)).Return(nil)

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("delete_order", map[string]any{"order_id": 55}),
		})
		require.NoError(t, err)
		assert.True(t, out.Terminal)
		assert.Contains(t, out.Reply, "deleted successfully")

		oc, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Nil(t, oc)
	})

	t.Run("missing order clears the stale context", func(t *testing.T) {
		orders := new(MockOrderRepository)
		engine, sessions := newOrderEngine(t, orders, new(MockMenuRepository))
		require.NoError(t, sessions.SaveOrderContext(ctx, "session_a", &session.OrderContext{OrderID: 55}))

		orders.On("Get", ctx, int64(55)).Return(nil, domain.ErrNotFound)

		out, err := engine.Dispatch(ctx, "session_a", user, &session.OrderContext{OrderID: 55}, []llm.ToolCall{
			call("delete_order", map[string]any{"order_id": 55}),
		})
		require.NoError(t, err)
		assert.True(t, out.Terminal)
		assert.Contains(t, out.Reply, "not found")

		oc, err := sessions.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Nil(t, oc)
	})
}
