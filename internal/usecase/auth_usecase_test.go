package usecase_test

import (
	"context"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type passVerifierStub struct{ ok bool }

func (v *passVerifierStub) Verify(plain string, hashed string) bool { return v.ok }

type passHasherStub struct{}

func (h *passHasherStub) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func newAuthUsecase(users *UserRepoMock, verifierOK bool, mailer *stubMailer, now time.Time) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(
		users,
		&passHasherStub{},
		&passVerifierStub{ok: verifierOK},
		&stubIssuer{},
		&fixedClock{now: now},
		mailer,
		zap.NewNop(),
	)
}

func TestAuthUsecase_Register_Validation(t *testing.T) {
	uc := newAuthUsecase(new(UserRepoMock), true, &stubMailer{}, time.Now())
	ctx := context.Background()

	_, err := uc.Register(ctx, usecase.RegisterInput{Email: "a@example.com", Phone: "+819012345678", Password: "password1"})
	assertErrContains(t, err, "required")

	_, err = uc.Register(ctx, usecase.RegisterInput{Name: "A", Email: "not-an-email", Phone: "+819012345678", Password: "password1"})
	assertErrContains(t, err, "invalid email")

	_, err = uc.Register(ctx, usecase.RegisterInput{Name: "A", Email: "a@example.com", Phone: "abc", Password: "password1"})
	assertErrContains(t, err, "invalid phone")

	_, err = uc.Register(ctx, usecase.RegisterInput{Name: "A", Email: "a@example.com", Phone: "+819012345678", Password: "short"})
	assertErrContains(t, err, "at least 8")
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{ID: 1}, nil)

	uc := newAuthUsecase(users, true, &stubMailer{}, time.Now())

	_, err := uc.Register(ctx, usecase.RegisterInput{
		Name: "A", Email: "a@example.com", Phone: "+819012345678", Password: "password1",
	})
	assertErrContains(t, err, "already registered")
}

func TestAuthUsecase_Register_SendsOTPMail(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, nil)
	users.On("FindByPhone", mock.Anything, "+819012345678").Return(nil, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "a@example.com" &&
			!u.IsVerified &&
			u.Role == model.RoleUser &&
			u.OTPCode != nil && len(*u.OTPCode) == 6 &&
			u.OTPExpiresAt != nil && u.OTPExpiresAt.Equal(now.Add(10*time.Minute))
	})).Return(nil)

	mailer := &stubMailer{}
	uc := newAuthUsecase(users, true, mailer, now)

	out, err := uc.Register(ctx, usecase.RegisterInput{
		Name: "A", Email: "A@Example.com", Phone: "+819012345678", Password: "password1",
	})
	assert.NoError(t, err)
	assert.Equal(t, "a@example.com", out.Email)
	assert.Equal(t, 1, mailer.otpCalls)

	users.AssertExpectations(t)
}

func TestAuthUsecase_Register_MailFailureDoesNotRollback(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, nil)
	users.On("FindByPhone", mock.Anything, "+819012345678").Return(nil, nil)
	users.On("Create", mock.Anything, mock.Anything).Return(nil)

	mailer := &stubMailer{fail: true}
	uc := newAuthUsecase(users, true, mailer, time.Now())

	_, err := uc.Register(ctx, usecase.RegisterInput{
		Name: "A", Email: "a@example.com", Phone: "+819012345678", Password: "password1",
	})
	assert.NoError(t, err)
}

func TestAuthUsecase_VerifyOTP_WrongCodeIncrementsAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	code := "123456"
	exp := now.Add(5 * time.Minute)

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, Email: "a@example.com", OTPCode: &code, OTPExpiresAt: &exp,
	}, nil)
	users.On("IncrementOTPAttempts", mock.Anything, int64(1)).Return(nil)

	uc := newAuthUsecase(users, true, &stubMailer{}, now)

	_, err := uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Email: "a@example.com", OTPCode: "999999"})
	assertErrContains(t, err, "invalid otp code")

	users.AssertExpectations(t)
}

func TestAuthUsecase_VerifyOTP_TooManyAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	code := "123456"
	exp := now.Add(5 * time.Minute)

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, OTPCode: &code, OTPExpiresAt: &exp, OTPAttempts: 5,
	}, nil)

	uc := newAuthUsecase(users, true, &stubMailer{}, now)

	_, err := uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Email: "a@example.com", OTPCode: "123456"})
	assertErrContains(t, err, "too many otp attempts")
}

func TestAuthUsecase_VerifyOTP_Expired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	code := "123456"
	exp := now.Add(-time.Minute)

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, OTPCode: &code, OTPExpiresAt: &exp,
	}, nil)

	uc := newAuthUsecase(users, true, &stubMailer{}, now)

	_, err := uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Email: "a@example.com", OTPCode: "123456"})
	assertErrContains(t, err, "otp expired")
}

func TestAuthUsecase_VerifyOTP_SuccessIssuesToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	code := "123456"
	exp := now.Add(5 * time.Minute)

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, Email: "a@example.com", Role: model.RoleUser,
		OTPCode: &code, OTPExpiresAt: &exp, OTPAttempts: 2,
	}, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.IsVerified && u.OTPCode == nil && u.OTPExpiresAt == nil && u.OTPAttempts == 0
	})).Return(nil)

	uc := newAuthUsecase(users, true, &stubMailer{}, now)

	out, err := uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Email: "a@example.com", OTPCode: "123456"})
	assert.NoError(t, err)
	assert.Equal(t, "token-for-test", out.Token.AccessToken)
	assert.True(t, out.User.IsVerified)

	users.AssertExpectations(t)
}

func TestAuthUsecase_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, IsActive: true, IsVerified: true,
	}, nil)

	uc := newAuthUsecase(users, false, &stubMailer{}, time.Now())

	_, err := uc.Login(ctx, usecase.LoginInput{Email: "a@example.com", Password: "wrong"})
	assertErrContains(t, err, "invalid credentials")
}

func TestAuthUsecase_Login_UnknownEmailSameMessage(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	uc := newAuthUsecase(users, true, &stubMailer{}, time.Now())

	_, err := uc.Login(ctx, usecase.LoginInput{Email: "nobody@example.com", Password: "password1"})
	assertErrContains(t, err, "invalid credentials")
}

func TestAuthUsecase_Login_UnverifiedForbidden(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, IsActive: true, IsVerified: false,
	}, nil)

	uc := newAuthUsecase(users, true, &stubMailer{}, time.Now())

	_, err := uc.Login(ctx, usecase.LoginInput{Email: "a@example.com", Password: "password1"})
	assertErrContains(t, err, "not verified")
}

func TestAuthUsecase_Login_Success(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, Email: "a@example.com", Role: model.RoleUser, IsActive: true, IsVerified: true,
	}, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.LastLoginAt != nil && u.LastLoginAt.Equal(now)
	})).Return(nil)

	uc := newAuthUsecase(users, true, &stubMailer{}, now)

	out, err := uc.Login(ctx, usecase.LoginInput{Email: "a@example.com", Password: "password1"})
	assert.NoError(t, err)
	assert.Equal(t, "token-for-test", out.Token.AccessToken)

	users.AssertExpectations(t)
}
