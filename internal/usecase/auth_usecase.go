package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	infmail "bookstore/internal/infra/mail"
	"bookstore/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// OTPの有効期限
const otpTTL = 10 * time.Minute

// OTPの失敗上限（超えたら再発行が必要）
const otpMaxAttempts = 5

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type BcryptPasswordVerifier struct{}

func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// AuthUsecase はメールOTP付きの会員登録とログイン。
type AuthUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    Clock
	mailer   infmail.Mailer
	logger   *zap.Logger
}

// DI
func NewAuthUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
	mailer infmail.Mailer,
	logger *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
		mailer:   mailer,
		logger:   logger,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type RegisterOutput struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// 会員登録実行。成功でOTPをメール送信する。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (RegisterOutput, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)

	if name == "" || email == "" || phone == "" || in.Password == "" {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "name, email, phone and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email format")
	}
	if !phonePattern.MatchString(phone) {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "invalid phone number format")
	}
	if len(in.Password) < 8 {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	//email重複チェック
	if existing, err := u.userRepo.FindByEmail(ctx, email); err != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	} else if existing != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusConflict, "email already registered")
	}

	//電話番号重複チェック
	if existing, err := u.userRepo.FindByPhone(ctx, phone); err != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	} else if existing != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusConflict, "phone number already registered")
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	code, err := generateOTP()
	if err != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := u.clock.Now()
	expires := now.Add(otpTTL)

	user := &model.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsVerified:   false,
		OTPCode:      &code,
		OTPExpiresAt: &expires,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//メール送信失敗は登録を巻き戻さない（resend-otpで回復できる）
	if err := u.mailer.SendOTP(email, name, code); err != nil {
		u.logger.Warn("otp mail send failed",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}

	return RegisterOutput{UserID: user.ID, Email: email}, nil
}

type VerifyOTPInput struct {
	Email   string
	OTPCode string
}

type TokenOutput struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type VerifyOTPOutput struct {
	User  model.User  `json:"user"`
	Token TokenOutput `json:"token"`
}

var otpPattern = regexp.MustCompile(`^[0-9]{6}$`)

// OTP確認。成功でアカウントを有効化しJWTを発行する。
func (u *AuthUsecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (VerifyOTPOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.OTPCode == "" {
		return VerifyOTPOutput{}, NewHTTPError(http.StatusBadRequest, "email and otp code are required")
	}
	if !otpPattern.MatchString(in.OTPCode) {
		return VerifyOTPOutput{}, NewHTTPError(http.StatusBadRequest, "invalid otp format")
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return VerifyOTPOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return VerifyOTPOutput{}, NewHTTPError(http.StatusNotFound, "user not found")
	}

	if user.OTPAttempts >= otpMaxAttempts {
		return VerifyOTPOutput{}, NewHTTPError(http.StatusTooManyRequests, "too many otp attempts")
	}
	if user.OTPCode == nil || user.OTPExpiresAt == nil {
		return VerifyOTPOutput{}, NewHTTPError(http.StatusBadRequest, "no otp found")
	}

	now := u.clock.Now()
	if now.After(*user.OTPExpiresAt) {
		return VerifyOTPOutput{}, NewHTTPError(http.StatusBadRequest, "otp expired")
	}

	if *user.OTPCode != in.OTPCode {
		if err := u.userRepo.IncrementOTPAttempts(ctx, user.ID); err != nil {
			return VerifyOTPOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return VerifyOTPOutput{}, NewHTTPError(http.StatusBadRequest, "invalid otp code")
	}

	//確認成功：OTPをクリアして有効化
	user.OTPCode = nil
	user.OTPExpiresAt = nil
	user.OTPAttempts = 0
	user.IsVerified = true
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return VerifyOTPOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	token, exp, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return VerifyOTPOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return VerifyOTPOutput{
		User:  *user,
		Token: TokenOutput{AccessToken: token, ExpiresAt: exp},
	}, nil
}

// OTP再発行。失敗カウントもリセットする。
func (u *AuthUsecase) ResendOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return NewHTTPError(http.StatusBadRequest, "email is required")
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return NewHTTPError(http.StatusNotFound, "user not found")
	}
	if user.IsVerified {
		return NewHTTPError(http.StatusBadRequest, "already verified")
	}

	code, err := generateOTP()
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := u.clock.Now()
	expires := now.Add(otpTTL)
	user.OTPCode = &code
	user.OTPExpiresAt = &expires
	user.OTPAttempts = 0
	if err := u.userRepo.Update(ctx, user); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.mailer.SendOTP(user.Email, user.Name, code); err != nil {
		u.logger.Warn("otp mail send failed",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}
	return nil
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	User  model.User  `json:"user"`
	Token TokenOutput `json:"token"`
}

// ログイン処理を実行する
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//存在しないメールでもメッセージは揃える
	if user == nil {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusForbidden, "user is inactive")
	}
	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !user.IsVerified {
		return LoginOutput{}, NewHTTPError(http.StatusForbidden, "email not verified")
	}

	now := u.clock.Now()
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	token, exp, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return LoginOutput{
		User:  *user,
		Token: TokenOutput{AccessToken: token, ExpiresAt: exp},
	}, nil
}

// 自分のプロフィール
func (u *AuthUsecase) Me(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return model.User{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	return *user, nil
}

// 6桁の数字OTP
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
