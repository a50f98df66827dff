package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"bookstore/internal/domain/model"
	"bookstore/internal/infra/payment"
	"bookstore/internal/infra/storage"
	"bookstore/internal/metrics"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

// PaymentUsecase は買い手側の支払いフロー。
// 証憑アップロードと、ゲートウェイ照会による自己確認の2経路がある。
type PaymentUsecase struct {
	tx       repo.TransactionManager
	userRepo repo.UserRepository
	files    storage.FileStorage
	gateway  payment.Gateway
	clock    Clock
	notif    *NotificationUsecase
	mailer   MailSender
	logger   *zap.Logger
}

// メール送信の約束（テストで差し替える）
type MailSender interface {
	SendPaymentVerified(to string, name string, bookTitle string) error
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	userRepo repo.UserRepository,
	files storage.FileStorage,
	gateway payment.Gateway,
	clock Clock,
	notif *NotificationUsecase,
	mailer MailSender,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:       tx,
		userRepo: userRepo,
		files:    files,
		gateway:  gateway,
		clock:    clock,
		notif:    notif,
		mailer:   mailer,
		logger:   logger,
	}
}

type SubmitScreenshotInput struct {
	OrderID      int64
	OriginalName string
	ContentType  string
	Data         []byte
}

type ScreenshotOutput struct {
	ID         int64  `json:"id"`
	OrderID    int64  `json:"order_id"`
	FileKey    string `json:"file_key"`
	UploadedAt string `json:"uploaded_at"`
}

// 証憑画像の上限（5MB）
const maxScreenshotBytes = 5 * 1024 * 1024

// SubmitScreenshot は支払い証憑をアップロードする。
// 証憑は注文のステータスを変えない。判定は管理者レビューの仕事。
func (u *PaymentUsecase) SubmitScreenshot(ctx context.Context, userID int64, in SubmitScreenshotInput) (ScreenshotOutput, error) {
	if userID <= 0 {
		return ScreenshotOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.OrderID <= 0 {
		return ScreenshotOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	if len(in.Data) == 0 {
		return ScreenshotOutput{}, NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if len(in.Data) > maxScreenshotBytes {
		return ScreenshotOutput{}, NewHTTPError(http.StatusBadRequest, "file too large")
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return ScreenshotOutput{}, NewHTTPError(http.StatusBadRequest, "image file required")
	}

	var out ScreenshotOutput
	var fileKey string
	expired := false
	notPending := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}

		now := u.clock.Now()

		o, expired, err = expireIfDue(ctx, r, o, now)
		if err != nil {
			return err
		}
		if o.Status != model.OrderStatusPending {
			//失効の書き込みをコミットさせるため、ここではエラーで抜けない
			notPending = true
			return nil
		}

		//ストレージ保存はtx内だがDB失敗時に孤児ファイルが残るだけで実害はない
		fileKey = fmt.Sprintf("payment-screenshots/%d-%d%s", o.ID, now.Unix(), screenshotExt(in.OriginalName))
		if _, err := u.files.Store(ctx, fileKey, in.Data, in.ContentType); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "file upload failed")
		}

		id, err := r.Screenshots().Create(ctx, model.PaymentScreenshot{
			OrderID:      o.ID,
			UserID:       userID,
			FileKey:      fileKey,
			OriginalName: in.OriginalName,
			UploadedAt:   now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Orders().SetScreenshotUploaded(ctx, o.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = ScreenshotOutput{
			ID:         id,
			OrderID:    o.ID,
			FileKey:    fileKey,
			UploadedAt: now.Format("2006-01-02T15:04:05Z07:00"),
		}
		return nil
	})

	if err != nil {
		return ScreenshotOutput{}, err
	}

	if expired {
		metrics.OrdersExpiredTotal.Inc()
	}
	if notPending {
		return ScreenshotOutput{}, NewHTTPError(http.StatusBadRequest, "order is not awaiting payment")
	}
	return out, nil
}

// VerifyWithGateway は決済ゲートウェイに照会し、決済済みなら注文を確定して
// アクセス権を付与する。人手を介さない確認経路。
func (u *PaymentUsecase) VerifyWithGateway(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var order model.Order
	var items []model.OrderItem
	expired := false

	//まず状態確認（遅延失効込み）
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}

		o, expired, err = expireIfDue(ctx, r, o, u.clock.Now())
		if err != nil {
			return err
		}
		order = o

		if o.Status == model.OrderStatusExpired {
			//EXPIREDへの更新を巻き戻さないよう、拒否はコミット後に返す
			return nil
		}

		items, err = r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if expired {
		metrics.OrdersExpiredTotal.Inc()
	}
	if order.Status == model.OrderStatusExpired {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "order expired")
	}

	//確定済みなら照会せずそのまま返す（冪等）
	if order.Status != model.OrderStatusPending {
		return toOrderOutput(order, items), nil
	}

	//外部照会はtxの外で行う
	settled, err := u.gateway.VerifyPayment(ctx, order.PaymentRef, order.Total)
	if err != nil {
		u.logger.Warn("gateway verify failed",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return OrderOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
	}
	if !settled {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment not confirmed")
	}

	now := u.clock.Now()

	//確定とアクセス権付与は同一トランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//照会中に状態が動いていないか再確認
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.Status != model.OrderStatusPending {
			order = o
			return nil
		}

		if err := r.Orders().MarkPaid(ctx, orderID, model.OrderStatusCompleted, now); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			if err := r.Access().Upsert(ctx, model.BookAccess{
				UserID:     userID,
				BookID:     it.BookID,
				OrderID:    orderID,
				AccessType: model.AccessTypePurchased,
				GrantedAt:  now,
				IsActive:   true,
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		order.Status = model.OrderStatusCompleted
		order.PaidAt = &now
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	metrics.PaymentsVerifiedTotal.Inc()
	u.notifyVerified(ctx, order, items)

	return toOrderOutput(order, items), nil
}

// 確定後の通知とメール。失敗しても注文は確定済みのまま。
func (u *PaymentUsecase) notifyVerified(ctx context.Context, order model.Order, items []model.OrderItem) {
	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.TitleSnapshot)
	}
	joined := strings.Join(titles, ", ")

	u.notif.Emit(ctx, order.UserID, model.NotificationPaymentVerified,
		"お支払いを確認しました",
		fmt.Sprintf("「%s」のお支払いを確認しました。ダウンロードできます。", joined),
		map[string]interface{}{"order_id": order.ID},
	)

	usr, err := u.userRepo.FindByID(ctx, order.UserID)
	if err != nil || usr == nil {
		return
	}
	if err := u.mailer.SendPaymentVerified(usr.Email, usr.Name, joined); err != nil {
		u.logger.Warn("payment verified mail failed",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}
}

func screenshotExt(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ".png"
	}
	ext := strings.ToLower(name[i:])
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
		return ext
	default:
		return ".png"
	}
}
