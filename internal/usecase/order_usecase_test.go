package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/qr"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testBank = qr.BankDetails{
	BankName:      "Test Bank",
	AccountName:   "TEST LTD",
	AccountNumber: "1234567890",
}

func newOrderUsecase(tx *TxManagerMock, now time.Time) *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(tx, &stubIDGen{id: "ref-0001"}, &fixedClock{now: now}, testBank)
}

func TestOrderUsecase_CreateOrder_EmptyLines(t *testing.T) {
	tx := new(TxManagerMock)
	uc := newOrderUsecase(tx, time.Now())

	_, err := uc.CreateOrder(context.Background(), 1, usecase.CreateOrderInput{})
	assertErrContains(t, err, "book_id is required")
}

func TestOrderUsecase_CreateOrder_Unauthorized(t *testing.T) {
	tx := new(TxManagerMock)
	uc := newOrderUsecase(tx, time.Now())

	_, err := uc.CreateOrder(context.Background(), 0, usecase.CreateOrderInput{
		Lines: []usecase.OrderLineInput{{BookID: 1}},
	})
	assertErrContains(t, err, "unauthorized")
}

func TestOrderUsecase_CreateOrder_BookNotFound(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tx := new(TxManagerMock)
	books := new(BookRepoMock)
	tx.Repos = &TxReposMock{books: books}
	tx.On("WithinTx", mock.Anything).Return(nil)

	//IDを2つ要求して1つしか返ってこない
	books.On("FindByIDs", mock.Anything, []int64{10, 11}).Return(
		[]model.Book{{ID: 10, IsActive: true, Price: 500}}, nil)

	uc := newOrderUsecase(tx, now)

	_, err := uc.CreateOrder(ctx, 1, usecase.CreateOrderInput{
		Lines: []usecase.OrderLineInput{{BookID: 10}, {BookID: 11}},
	})
	assertErrContains(t, err, "book not found")
}

func TestOrderUsecase_CreateOrder_InactiveBookIsNotFound(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	books := new(BookRepoMock)
	tx.Repos = &TxReposMock{books: books}
	tx.On("WithinTx", mock.Anything).Return(nil)

	books.On("FindByIDs", mock.Anything, []int64{10}).Return(
		[]model.Book{{ID: 10, IsActive: false, Price: 500}}, nil)

	uc := newOrderUsecase(tx, time.Now())

	_, err := uc.CreateOrder(ctx, 1, usecase.CreateOrderInput{
		Lines: []usecase.OrderLineInput{{BookID: 10}},
	})
	assertErrContains(t, err, "book not found")
}

func TestOrderUsecase_CreateOrder_AlreadyOwned(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tx := new(TxManagerMock)
	books := new(BookRepoMock)
	access := new(AccessRepoMock)
	tx.Repos = &TxReposMock{books: books, access: access}
	tx.On("WithinTx", mock.Anything).Return(nil)

	books.On("FindByIDs", mock.Anything, []int64{10}).Return(
		[]model.Book{{ID: 10, Title: "Learning Go", IsActive: true, Price: 1200}}, nil)
	access.On("ActiveBookIDs", mock.Anything, int64(1), []int64{10}, now).Return([]int64{10}, nil)

	uc := newOrderUsecase(tx, now)

	_, err := uc.CreateOrder(ctx, 1, usecase.CreateOrderInput{
		Lines: []usecase.OrderLineInput{{BookID: 10}},
	})
	assertErrContains(t, err, "already owned")
	assertErrContains(t, err, "Learning Go")
}

func TestOrderUsecase_CreateOrder_Success(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tx := new(TxManagerMock)
	books := new(BookRepoMock)
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	access := new(AccessRepoMock)
	tx.Repos = &TxReposMock{books: books, orders: orders, orderItems: items, access: access}
	tx.On("WithinTx", mock.Anything).Return(nil)

	books.On("FindByIDs", mock.Anything, []int64{10, 20}).Return([]model.Book{
		{ID: 10, Title: "Learning Go", IsActive: true, Price: 1200},
		{ID: 20, Title: "Practical SQL", IsActive: true, Price: 800},
	}, nil)
	access.On("ActiveBookIDs", mock.Anything, int64(1), []int64{10, 20}, now).Return([]int64{}, nil)

	var createdOrder model.Order
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		createdOrder = o
		return o.Status == model.OrderStatusPending
	})).Return(int64(77), nil)

	items.On("CreateBulk", mock.Anything, int64(77), mock.Anything).Return(nil)

	uc := newOrderUsecase(tx, now)

	out, err := uc.CreateOrder(ctx, 1, usecase.CreateOrderInput{
		Lines: []usecase.OrderLineInput{
			{BookID: 10, Quantity: 2},
			{BookID: 20}, //数量省略は1
		},
	})
	assert.NoError(t, err)

	assert.Equal(t, int64(77), out.ID)
	assert.Equal(t, "PENDING", out.Status)
	assert.Equal(t, int64(1200*2+800), out.Total)
	assert.Equal(t, "ref-0001", out.PaymentRef)
	assert.True(t, strings.HasPrefix(out.QRCode, "data:image/png;base64,"))
	assert.Equal(t, now.Add(model.OrderTTL), out.ExpiresAt)
	assert.Equal(t, 2, len(out.Items))

	//スナップショットが書籍の現在価格で切られている
	assert.Equal(t, "Learning Go", out.Items[0].Title)
	assert.Equal(t, int64(1200), out.Items[0].Price)
	assert.Equal(t, int64(2), out.Items[0].Quantity)

	assert.Equal(t, now.Add(model.OrderTTL), createdOrder.ExpiresAt)

	tx.AssertExpectations(t)
	orders.AssertExpectations(t)
	items.AssertExpectations(t)
}

func TestOrderUsecase_CreateOrder_DuplicateLine(t *testing.T) {
	tx := new(TxManagerMock)
	tx.Repos = &TxReposMock{}
	tx.On("WithinTx", mock.Anything).Return(nil)

	uc := newOrderUsecase(tx, time.Now())

	_, err := uc.CreateOrder(context.Background(), 1, usecase.CreateOrderInput{
		Lines: []usecase.OrderLineInput{{BookID: 10}, {BookID: 10}},
	})
	assertErrContains(t, err, "duplicate book_id")
}

func TestOrderUsecase_CheckoutCart_Empty(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	carts := new(CartItemRepoMock)
	tx.Repos = &TxReposMock{cartItems: carts}
	tx.On("WithinTx", mock.Anything).Return(nil)

	carts.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{}, nil)

	uc := newOrderUsecase(tx, time.Now())

	_, err := uc.CheckoutCart(ctx, 1)
	assertErrContains(t, err, "cart is empty")
}

func TestOrderUsecase_CheckoutCart_ClearsCartInSameTx(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tx := new(TxManagerMock)
	books := new(BookRepoMock)
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	access := new(AccessRepoMock)
	carts := new(CartItemRepoMock)
	tx.Repos = &TxReposMock{books: books, orders: orders, orderItems: items, access: access, cartItems: carts}
	tx.On("WithinTx", mock.Anything).Return(nil)

	carts.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 5, UserID: 1, BookID: 10, Quantity: 1},
	}, nil)
	books.On("FindByIDs", mock.Anything, []int64{10}).Return([]model.Book{
		{ID: 10, Title: "Learning Go", IsActive: true, Price: 1200},
	}, nil)
	access.On("ActiveBookIDs", mock.Anything, int64(1), []int64{10}, now).Return([]int64{}, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(88), nil)
	items.On("CreateBulk", mock.Anything, int64(88), mock.Anything).Return(nil)
	carts.On("ClearByUserID", mock.Anything, int64(1)).Return(nil)

	uc := newOrderUsecase(tx, now)

	out, err := uc.CheckoutCart(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(88), out.ID)

	carts.AssertExpectations(t)
}

func TestOrderUsecase_GetMyOrderDetail_OthersOrderHidden(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	tx.Repos = &TxReposMock{orders: orders}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{ID: 7, UserID: 2}, nil)

	uc := newOrderUsecase(tx, time.Now())

	_, err := uc.GetMyOrderDetail(ctx, 1, 7)
	assertErrContains(t, err, "not found")
}

func TestOrderUsecase_GetMyOrderDetail_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	tx.Repos = &TxReposMock{orders: orders, orderItems: items}
	tx.On("WithinTx", mock.Anything).Return(nil)

	//期限を1分過ぎたPENDING
	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID:        7,
		UserID:    1,
		Status:    model.OrderStatusPending,
		ExpiresAt: now.Add(-time.Minute),
	}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(7), model.OrderStatusExpired).Return(nil)
	items.On("ListByOrderID", mock.Anything, int64(7)).Return([]model.OrderItem{}, nil)

	uc := newOrderUsecase(tx, now)

	out, err := uc.GetMyOrderDetail(ctx, 1, 7)
	assert.NoError(t, err)
	assert.Equal(t, "EXPIRED", out.Status)

	//EXPIREDへの更新が永続化されている
	orders.AssertExpectations(t)
}

func TestOrderUsecase_GetMyOrderDetail_PaidOrderNeverExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	tx.Repos = &TxReposMock{orders: orders, orderItems: items}
	tx.On("WithinTx", mock.Anything).Return(nil)

	//期限は過去だがPAID（失効対象はPENDINGのみ）
	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID:        7,
		UserID:    1,
		Status:    model.OrderStatusPaid,
		ExpiresAt: now.Add(-time.Hour),
	}, nil)
	items.On("ListByOrderID", mock.Anything, int64(7)).Return([]model.OrderItem{}, nil)

	uc := newOrderUsecase(tx, now)

	out, err := uc.GetMyOrderDetail(ctx, 1, 7)
	assert.NoError(t, err)
	assert.Equal(t, "PAID", out.Status)

	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_ListMyOrders_ExpiresDuePending(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	tx.Repos = &TxReposMock{orders: orders, orderItems: items}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("ListByUserID", mock.Anything, int64(1), 1, 50).Return([]model.Order{
		{ID: 1, UserID: 1, Status: model.OrderStatusPending, ExpiresAt: now.Add(-time.Minute)},
		{ID: 2, UserID: 1, Status: model.OrderStatusPending, ExpiresAt: now.Add(time.Minute)},
	}, int64(2), nil)
	orders.On("UpdateStatus", mock.Anything, int64(1), model.OrderStatusExpired).Return(nil)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)
	items.On("ListByOrderID", mock.Anything, int64(2)).Return([]model.OrderItem{}, nil)

	uc := newOrderUsecase(tx, now)

	outs, err := uc.ListMyOrders(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(outs))
	assert.Equal(t, "EXPIRED", outs[0].Status)
	assert.Equal(t, "PENDING", outs[1].Status)

	orders.AssertExpectations(t)
}

var _ repo.TransactionManager = (*TxManagerMock)(nil)
