package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
	// 直近のfnの戻り値。nilならそのtxはコミットされる
	TxErr error
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	m.TxErr = fn(m.Repos)
	return m.TxErr
}

type TxReposMock struct {
	users       repo.UserRepository
	books       repo.BookRepository
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	cartItems   repo.CartItemRepository
	screenshots repo.ScreenshotRepository
	access      repo.AccessRepository
	auditLogs   repo.AuditLogRepository
}

func (r *TxReposMock) Users() repo.UserRepository              { return r.users }
func (r *TxReposMock) Books() repo.BookRepository              { return r.books }
func (r *TxReposMock) Orders() repo.OrderRepository            { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository    { return r.orderItems }
func (r *TxReposMock) CartItems() repo.CartItemRepository      { return r.cartItems }
func (r *TxReposMock) Screenshots() repo.ScreenshotRepository  { return r.screenshots }
func (r *TxReposMock) Access() repo.AccessRepository           { return r.access }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository      { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type BookRepoMock struct{ mock.Mock }

func (m *BookRepoMock) ListPublic(ctx context.Context, q repo.BookListQuery) ([]model.Book, int64, error) {
	args := m.Called(ctx, q)
	books, _ := args.Get(0).([]model.Book)
	return books, args.Get(1).(int64), args.Error(2)
}

func (m *BookRepoMock) FindByID(ctx context.Context, id int64) (model.Book, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(model.Book)
	return b, args.Error(1)
}

func (m *BookRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.Book, error) {
	args := m.Called(ctx, ids)
	books, _ := args.Get(0).([]model.Book)
	return books, args.Error(1)
}

func (m *BookRepoMock) Create(ctx context.Context, b model.Book) (model.Book, error) {
	args := m.Called(ctx, b)
	created, _ := args.Get(0).(model.Book)
	return created, args.Error(1)
}

func (m *BookRepoMock) Update(ctx context.Context, b model.Book) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *BookRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *BookRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) MarkPaid(ctx context.Context, orderID int64, status model.OrderStatus, paidAt time.Time) error {
	args := m.Called(ctx, orderID, status, paidAt)
	return args.Error(0)
}

func (m *OrderRepoMock) SetScreenshotUploaded(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) SumRevenue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByUserAndBook(ctx context.Context, userID int64, bookID int64, addQty int64) error {
	args := m.Called(ctx, userID, bookID, addQty)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) ClearByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type ScreenshotRepoMock struct{ mock.Mock }

func (m *ScreenshotRepoMock) Create(ctx context.Context, s model.PaymentScreenshot) (int64, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ScreenshotRepoMock) FindByID(ctx context.Context, id int64) (model.PaymentScreenshot, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(model.PaymentScreenshot)
	return s, args.Error(1)
}

func (m *ScreenshotRepoMock) List(ctx context.Context, f repo.ScreenshotListFilter) ([]model.PaymentScreenshot, error) {
	args := m.Called(ctx, f)
	shots, _ := args.Get(0).([]model.PaymentScreenshot)
	return shots, args.Error(1)
}

func (m *ScreenshotRepoMock) SetVerdict(ctx context.Context, id int64, verified bool, verifiedBy int64, verifiedAt time.Time) error {
	args := m.Called(ctx, id, verified, verifiedBy, verifiedAt)
	return args.Error(0)
}

type AccessRepoMock struct{ mock.Mock }

func (m *AccessRepoMock) Find(ctx context.Context, userID int64, bookID int64) (model.BookAccess, error) {
	args := m.Called(ctx, userID, bookID)
	a, _ := args.Get(0).(model.BookAccess)
	return a, args.Error(1)
}

func (m *AccessRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.BookAccess, error) {
	args := m.Called(ctx, userID)
	accesses, _ := args.Get(0).([]model.BookAccess)
	return accesses, args.Error(1)
}

func (m *AccessRepoMock) Upsert(ctx context.Context, a model.BookAccess) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AccessRepoMock) Deactivate(ctx context.Context, userID int64, bookID int64) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *AccessRepoMock) RecordDownload(ctx context.Context, userID int64, bookID int64, at time.Time) error {
	args := m.Called(ctx, userID, bookID, at)
	return args.Error(0)
}

func (m *AccessRepoMock) ActiveBookIDs(ctx context.Context, userID int64, bookIDs []int64, now time.Time) ([]int64, error) {
	args := m.Called(ctx, userID, bookIDs, now)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

type AuditLogRepoMock struct{ mock.Mock }

func (m *AuditLogRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditLogRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type NotificationRepoMock struct{ mock.Mock }

func (m *NotificationRepoMock) Create(ctx context.Context, n model.Notification) (int64, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepoMock) ListByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	ns, _ := args.Get(0).([]model.Notification)
	return ns, args.Error(1)
}

func (m *NotificationRepoMock) MarkRead(ctx context.Context, userID int64, notificationID int64) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

func (m *NotificationRepoMock) MarkAllRead(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	args := m.Called(ctx, phone)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) IncrementOTPAttempts(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepoMock) List(ctx context.Context, page int, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, page, limit)
	users, _ := args.Get(0).([]model.User)
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *UserRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// 部品のスタブ
// =====================

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type stubIDGen struct{ id string }

func (g *stubIDGen) NewID() string { return g.id }

type stubIssuer struct{}

func (s *stubIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	return "token-for-test", now.Add(24 * time.Hour), nil
}

type stubMailer struct {
	otpCalls      int
	verifiedCalls int
	fail          bool
}

func (m *stubMailer) SendOTP(to string, name string, code string) error {
	m.otpCalls++
	if m.fail {
		return assert.AnError
	}
	return nil
}

func (m *stubMailer) SendPaymentVerified(to string, name string, bookTitle string) error {
	m.verifiedCalls++
	if m.fail {
		return assert.AnError
	}
	return nil
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
