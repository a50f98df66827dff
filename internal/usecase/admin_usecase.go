package usecase

import (
	"context"
	"encoding/json"
	"net/http"

	"bookstore/internal/domain/model"
	"bookstore/internal/metrics"
	repo "bookstore/internal/repository"
)

// AdminUsecase はダッシュボード統計とユーザー管理。
type AdminUsecase struct {
	tx       repo.TransactionManager
	userRepo repo.UserRepository
	clock    Clock
}

func NewAdminUsecase(tx repo.TransactionManager, userRepo repo.UserRepository, clock Clock) *AdminUsecase {
	return &AdminUsecase{tx: tx, userRepo: userRepo, clock: clock}
}

type AdminStatsOutput struct {
	Users   int64 `json:"users"`
	Books   int64 `json:"books"`
	Orders  int64 `json:"orders"`
	Revenue int64 `json:"revenue"`
}

func (u *AdminUsecase) GetStats(ctx context.Context) (AdminStatsOutput, error) {
	var out AdminStatsOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		if out.Books, err = r.Books().Count(ctx); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if out.Orders, err = r.Orders().Count(ctx); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if out.Revenue, err = r.Orders().SumRevenue(ctx); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return AdminStatsOutput{}, err
	}

	users, err := u.userRepo.Count(ctx)
	if err != nil {
		return AdminStatsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	out.Users = users

	return out, nil
}

type AdminUserListOutput struct {
	Users []model.User `json:"users"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *AdminUsecase) ListUsers(ctx context.Context, page int, limit int) (AdminUserListOutput, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	users, total, err := u.userRepo.List(ctx, page, limit)
	if err != nil {
		return AdminUserListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return AdminUserListOutput{Users: users, Total: total, Page: page, Limit: limit}, nil
}

type AdminUpdateUserInput struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// UpdateUser はロール・有効状態を変更し、監査ログを残す。
// 自分自身の管理者権限を外すことはできない。
func (u *AdminUsecase) UpdateUser(ctx context.Context, adminID int64, targetID int64, in AdminUpdateUserInput) (model.User, error) {
	if targetID <= 0 {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Role == nil && in.IsActive == nil {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	if in.Role != nil && *in.Role != string(model.RoleUser) && *in.Role != string(model.RoleAdmin) {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	var updated model.User

	//ユーザー更新と監査ログは同一トランザクション。片方だけ残さない。
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		target, err := r.Users().FindByID(ctx, targetID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if target == nil {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}

		if targetID == adminID {
			if in.Role != nil && *in.Role != string(model.RoleAdmin) {
				return NewHTTPError(http.StatusBadRequest, "cannot demote yourself")
			}
			if in.IsActive != nil && !*in.IsActive {
				return NewHTTPError(http.StatusBadRequest, "cannot deactivate yourself")
			}
		}

		before := map[string]interface{}{
			"role": string(target.Role), "is_active": target.IsActive,
		}

		if in.Role != nil {
			target.Role = model.Role(*in.Role)
		}
		if in.IsActive != nil {
			target.IsActive = *in.IsActive
		}

		after := map[string]interface{}{
			"role": string(target.Role), "is_active": target.IsActive,
		}

		if err := r.Users().Update(ctx, target); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		beforeJSON, _ := json.Marshal(before)
		afterJSON, _ := json.Marshal(after)
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       model.AuditActionUpdateUser,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		updated = *target
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	return updated, nil
}

type AdminOrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// ListOrders は管理者用の注文一覧。status等で絞り込める。
func (u *AdminUsecase) ListOrders(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}

	var out AdminOrderListOutput
	expired := 0

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()

		out.Orders = make([]OrderOutput, 0, len(orders))
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
			out.Orders = append(out.Orders, toOrderOutput(o, items))
		}
		out.Total = total
		out.Page = f.Page
		out.Limit = f.Limit
		return nil
	})
	if err != nil {
		return AdminOrderListOutput{}, err
	}

	if expired > 0 {
		metrics.OrdersExpiredTotal.Add(float64(expired))
	}
	return out, nil
}

// ListAuditLogs は監査ログを条件付きで返す。
func (u *AdminUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	var logs []model.AuditLog

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		logs, err = r.AuditLogs().List(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return []model.AuditLog{}, err
	}
	return logs, nil
}
