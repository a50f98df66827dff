package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"bookstore/internal/domain/model"
	"bookstore/internal/metrics"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

// AdminPaymentUsecase は管理者による証憑レビュー。
// verify/rejectの判定と、その監査ログを同一トランザクションで残す。
type AdminPaymentUsecase struct {
	tx       repo.TransactionManager
	userRepo repo.UserRepository
	clock    Clock
	notif    *NotificationUsecase
	mailer   MailSender
	logger   *zap.Logger
}

func NewAdminPaymentUsecase(
	tx repo.TransactionManager,
	userRepo repo.UserRepository,
	clock Clock,
	notif *NotificationUsecase,
	mailer MailSender,
	logger *zap.Logger,
) *AdminPaymentUsecase {
	return &AdminPaymentUsecase{
		tx:       tx,
		userRepo: userRepo,
		clock:    clock,
		notif:    notif,
		mailer:   mailer,
		logger:   logger,
	}
}

type ScreenshotReviewOutput struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	UserID       int64   `json:"user_id"`
	FileKey      string  `json:"file_key"`
	OriginalName string  `json:"original_name"`
	UploadedAt   string  `json:"uploaded_at"`
	Verified     bool    `json:"verified"`
	VerifiedBy   *int64  `json:"verified_by,omitempty"`
	OrderStatus  string  `json:"order_status"`
	OrderTotal   int64   `json:"order_total"`
	PaymentRef   string  `json:"payment_ref"`
}

// ListScreenshots は証憑一覧。verified=nilで全件。
func (u *AdminPaymentUsecase) ListScreenshots(ctx context.Context, verified *bool) ([]ScreenshotReviewOutput, error) {
	var outs []ScreenshotReviewOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		shots, err := r.Screenshots().List(ctx, repo.ScreenshotListFilter{Verified: verified})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]ScreenshotReviewOutput, 0, len(shots))
		for _, s := range shots {
			o, err := r.Orders().FindByID(ctx, s.OrderID)
			if err != nil && err != repo.ErrNotFound {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, ScreenshotReviewOutput{
				ID:           s.ID,
				OrderID:      s.OrderID,
				UserID:       s.UserID,
				FileKey:      s.FileKey,
				OriginalName: s.OriginalName,
				UploadedAt:   s.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
				Verified:     s.Verified,
				VerifiedBy:   s.VerifiedBy,
				OrderStatus:  string(o.Status),
				OrderTotal:   o.Total,
				PaymentRef:   o.PaymentRef,
			})
		}
		return nil
	})

	if err != nil {
		return []ScreenshotReviewOutput{}, err
	}
	return outs, nil
}

type DecideInput struct {
	//"verify" か "reject"
	Action string `json:"action"`
}

// Decide は証憑にverify/rejectの判定を下す。
// verifyなら注文をPAIDにしてアクセス権を付与し、rejectなら注文は触らない。
// 同じ判定の再実行は何もしない（冪等）。
func (u *AdminPaymentUsecase) Decide(ctx context.Context, adminID int64, screenshotID int64, in DecideInput) error {
	if screenshotID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Action != "verify" && in.Action != "reject" {
		return NewHTTPError(http.StatusBadRequest, "action must be verify or reject")
	}
	approve := in.Action == "verify"

	var order model.Order
	var items []model.OrderItem
	alreadyDecided := false
	expired := false
	orderExpired := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := r.Screenshots().FindByID(ctx, screenshotID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "screenshot not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if s.VerifiedBy != nil {
			if s.Verified == approve {
				//同じ判定の繰り返しは成功扱い
				alreadyDecided = true
				return nil
			}
			return NewHTTPError(http.StatusConflict, "screenshot already decided")
		}

		o, err := r.Orders().FindByID(ctx, s.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()

		//期限切れPENDINGは承認できない。ここでEXPIREDに倒す。
		//倒した書き込みはコミットさせたいので、拒否のエラーはtxの外で返す。
		if approve {
			o, expired, err = expireIfDue(ctx, r, o, now)
			if err != nil {
				return err
			}
			if o.Status == model.OrderStatusExpired {
				orderExpired = true
				return nil
			}
		}

		if err := r.Screenshots().SetVerdict(ctx, screenshotID, approve, adminID, now); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		statusBefore := o.Status

		if approve && o.Status == model.OrderStatusPending {
			if err := r.Orders().MarkPaid(ctx, o.ID, model.OrderStatusPaid, now); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			o.Status = model.OrderStatusPaid
			o.PaidAt = &now

			its, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			for _, it := range its {
				if err := r.Access().Upsert(ctx, model.BookAccess{
					UserID:     o.UserID,
					BookID:     it.BookID,
					OrderID:    o.ID,
					AccessType: model.AccessTypePurchased,
					GrantedAt:  now,
					IsActive:   true,
				}); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
			items = its
		} else if items == nil {
			items, err = r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//監査ログも同一トランザクション
		action := model.AuditActionVerifyPayment
		if !approve {
			action = model.AuditActionRejectPayment
		}
		beforeJSON, _ := json.Marshal(map[string]interface{}{
			"verified": false, "order_status": string(statusBefore),
		})
		afterJSON, _ := json.Marshal(map[string]interface{}{
			"verified": approve, "order_status": string(o.Status),
		})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       action,
			ResourceType: model.AuditResourceScreenshot,
			ResourceID:   screenshotID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order = o
		return nil
	})

	if err != nil {
		return err
	}

	if expired {
		metrics.OrdersExpiredTotal.Inc()
	}
	if orderExpired {
		return NewHTTPError(http.StatusBadRequest, "order expired")
	}
	if alreadyDecided {
		return nil
	}

	//通知・メール・メトリクスはコミット後、失敗しても判定は覆らない
	if approve {
		metrics.PaymentsVerifiedTotal.Inc()
		u.notifyDecision(ctx, order, items, true)
	} else {
		metrics.PaymentsRejectedTotal.Inc()
		u.notifyDecision(ctx, order, items, false)
	}

	return nil
}

func (u *AdminPaymentUsecase) notifyDecision(ctx context.Context, order model.Order, items []model.OrderItem, approved bool) {
	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.TitleSnapshot)
	}
	joined := strings.Join(titles, ", ")

	if approved {
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
		return
	}

	u.notif.Emit(ctx, order.UserID, model.NotificationPaymentRejected,
		"お支払いを確認できませんでした",
		fmt.Sprintf("「%s」の証憑を確認できませんでした。もう一度アップロードしてください。", joined),
		map[string]interface{}{"order_id": order.ID},
	)
}
