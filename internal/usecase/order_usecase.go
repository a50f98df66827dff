package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/metrics"
	"bookstore/internal/qr"
	repo "bookstore/internal/repository"
)

type OrderUsecase struct {
	tx    repo.TransactionManager
	idGen IDGenerator
	clock Clock
	bank  qr.BankDetails
}

func NewOrderUsecase(tx repo.TransactionManager, idGen IDGenerator, clock Clock, bank qr.BankDetails) *OrderUsecase {
	return &OrderUsecase{tx: tx, idGen: idGen, clock: clock, bank: bank}
}

type OrderLineInput struct {
	BookID   int64 `json:"book_id"`
	Quantity int64 `json:"quantity"`
}

type CreateOrderInput struct {
	Lines []OrderLineInput
}

type OrderItemOutput struct {
	BookID   int64  `json:"book_id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type OrderOutput struct {
	ID                 int64             `json:"id"`
	UserID             int64             `json:"user_id"`
	Status             string            `json:"status"`
	Total              int64             `json:"total"`
	PaymentMethod      string            `json:"payment_method"`
	PaymentRef         string            `json:"payment_ref"`
	QRCode             string            `json:"qr_code,omitempty"`
	ScreenshotUploaded bool              `json:"screenshot_uploaded"`
	ExpiresAt          time.Time         `json:"expires_at"`
	PaidAt             *time.Time        `json:"paid_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	Items              []OrderItemOutput `json:"items"`
}

// CreateOrder は注文を作成する。
// 所有チェックはアクセス権（user_book_access）を唯一の根拠にする。
// 注文履歴と食い違ったとき（手動で権限を剥奪した等）は再購入できるのが正。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Lines) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "book_id is required")
	}

	var out OrderOutput

	//注文作成はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		out, err = u.createOrderTx(ctx, r, userID, in.Lines)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}

	metrics.OrdersCreatedTotal.Inc()
	return out, nil
}

// CheckoutCart はカートの中身で注文を作り、同一トランザクションでカートを空にする。
func (u *OrderUsecase) CheckoutCart(ctx context.Context, userID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(items) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		lines := make([]OrderLineInput, 0, len(items))
		for _, it := range items {
			lines = append(lines, OrderLineInput{BookID: it.BookID, Quantity: it.Quantity})
		}

		out, err = u.createOrderTx(ctx, r, userID, lines)
		if err != nil {
			return err
		}

		return r.CartItems().ClearByUserID(ctx, userID)
	})

	if err != nil {
		return OrderOutput{}, err
	}

	metrics.OrdersCreatedTotal.Inc()
	return out, nil
}

func (u *OrderUsecase) createOrderTx(ctx context.Context, r repo.TxRepos, userID int64, lines []OrderLineInput) (OrderOutput, error) {
	bookIDs := make([]int64, 0, len(lines))
	qtyByBook := make(map[int64]int64, len(lines))
	for _, l := range lines {
		if l.BookID <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid book_id")
		}
		qty := l.Quantity
		if qty <= 0 {
			qty = 1
		}
		if _, dup := qtyByBook[l.BookID]; dup {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "duplicate book_id")
		}
		bookIDs = append(bookIDs, l.BookID)
		qtyByBook[l.BookID] = qty
	}

	//書籍取得（存在しない・非公開は404）
	books, err := r.Books().FindByIDs(ctx, bookIDs)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	bookByID := make(map[int64]model.Book, len(books))
	for _, b := range books {
		bookByID[b.ID] = b
	}
	for _, id := range bookIDs {
		b, ok := bookByID[id]
		if !ok || !b.IsActive {
			return OrderOutput{}, NewHTTPError(http.StatusNotFound, "book not found")
		}
	}

	now := u.clock.Now()

	//すでに所有している書籍は再購入させない
	owned, err := r.Access().ActiveBookIDs(ctx, userID, bookIDs, now)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(owned) > 0 {
		titles := make([]string, 0, len(owned))
		for _, id := range owned {
			titles = append(titles, bookByID[id].Title)
		}
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "already owned: "+strings.Join(titles, ", "))
	}

	//スナップショットと合計
	orderItems := make([]model.OrderItem, 0, len(bookIDs))
	var total int64 = 0
	for _, id := range bookIDs {
		b := bookByID[id]
		qty := qtyByBook[id]
		orderItems = append(orderItems, model.OrderItem{
			BookID:        b.ID,
			TitleSnapshot: b.Title,
			UnitPrice:     b.Price,
			Quantity:      qty,
			CreatedAt:     now,
		})
		total += b.Price * qty
	}

	//支払い案内（参照番号＋QR）は作成時に一度だけ作る
	paymentRef := u.idGen.NewID()
	qrCode, err := qr.PaymentQR(total, paymentRef, u.bank)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "qr error")
	}

	order := model.Order{
		UserID:        userID,
		Status:        model.OrderStatusPending,
		Total:         total,
		PaymentMethod: model.PaymentMethodQRCode,
		PaymentRef:    paymentRef,
		QRCode:        qrCode,
		ExpiresAt:     now.Add(model.OrderTTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	orderID, err := r.Orders().Create(ctx, order)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//注文明細一括作成
	if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	order.ID = orderID
	return toOrderOutput(order, orderItems), nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングでまずは固定で取る
	var outs []OrderOutput
	expired := 0

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			var flipped bool
			o, flipped, err = expireIfDue(ctx, r, o, now)
			if err != nil {
				return err
			}
			if flipped {
				expired++
			}
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}

	if expired > 0 {
		metrics.OrdersExpiredTotal.Add(float64(expired))
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	expired := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		o, expired, err = expireIfDue(ctx, r, o, u.clock.Now())
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	if expired {
		metrics.OrdersExpiredTotal.Inc()
	}
	return out, nil
}

// 期限切れのPENDINGは読んだ時点でEXPIREDに倒す（遅延失効）。
// 倒したかどうかを返す。エラーで抜けるとtxごと巻き戻るので、
// 失効を理由に処理を拒否する場合でもこの関数の後はnilでtxを抜けること。
// メトリクスへの加算もコミット後に呼び出し側で行う。
func expireIfDue(ctx context.Context, r repo.TxRepos, o model.Order, now time.Time) (model.Order, bool, error) {
	if !o.IsExpired(now) {
		return o, false, nil
	}
	if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusExpired); err != nil {
		return model.Order{}, false, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	o.Status = model.OrderStatusExpired
	return o, true, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			BookID:   it.BookID,
			Title:    it.TitleSnapshot,
			Price:    it.UnitPrice,
			Quantity: it.Quantity,
		})
	}

	return OrderOutput{
		ID:                 o.ID,
		UserID:             o.UserID,
		Status:             string(o.Status),
		Total:              o.Total,
		PaymentMethod:      string(o.PaymentMethod),
		PaymentRef:         o.PaymentRef,
		QRCode:             o.QRCode,
		ScreenshotUploaded: o.ScreenshotUploaded,
		ExpiresAt:          o.ExpiresAt,
		PaidAt:             o.PaidAt,
		CreatedAt:          o.CreatedAt,
		Items:              outItems,
	}
}
