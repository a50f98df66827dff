package main

import (
	"context"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/handler"
	"bookstore/internal/infra/db"
	"bookstore/internal/infra/mail"
	"bookstore/internal/infra/payment"
	infraRepo "bookstore/internal/infra/repository"
	"bookstore/internal/infra/storage"
	"bookstore/internal/qr"
	"bookstore/internal/server"
	"bookstore/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	// .envは無くても動く（compose等で直接渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.GoEnv == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Book{},
		&model.Order{},
		&model.OrderItem{},
		&model.CartItem{},
		&model.PaymentScreenshot{},
		&model.BookAccess{},
		&model.Notification{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	//ストレージ（local / s3）
	var files storage.FileStorage
	switch cfg.StorageDriver {
	case "s3":
		s3Store, err := storage.NewS3Storage(context.Background(),
			cfg.AWSRegion, cfg.AWSBucket, cfg.AWSAccessKey, cfg.AWSSecretKey)
		if err != nil {
			logger.Fatal("s3 init failed", zap.Error(err))
		}
		files = s3Store
	default:
		files = storage.NewLocalStorage(cfg.LocalDir)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	bookRepo := infraRepo.NewBookGormRepository(gormDB)
	cartRepo := infraRepo.NewCartItemGormRepository(gormDB)
	accessRepo := infraRepo.NewAccessGormRepository(gormDB)
	notifRepo := infraRepo.NewNotificationGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := usecase.NewBcryptPasswordHasher(12)
	verifier := usecase.NewBcryptPasswordVerifier()

	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: 24 * time.Hour,
	}

	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	gateway := payment.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayAPIKey)
	bank := qr.BankDetails{
		BankName:      cfg.BankName,
		AccountName:   cfg.BankAccount,
		AccountNumber: cfg.BankAccountNo,
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, hasher, verifier, issuer, clock, mailer, logger)
	bookUC := usecase.NewBookUsecase(bookRepo, files, idGen)
	cartUC := usecase.NewCartUsecase(cartRepo, bookRepo, accessRepo, clock)
	orderUC := usecase.NewOrderUsecase(txManager, idGen, clock, bank)
	notifUC := usecase.NewNotificationUsecase(notifRepo, logger)
	paymentUC := usecase.NewPaymentUsecase(txManager, userRepo, files, gateway, clock, notifUC, mailer, logger)
	adminPaymentUC := usecase.NewAdminPaymentUsecase(txManager, userRepo, clock, notifUC, mailer, logger)
	accessUC := usecase.NewAccessUsecase(accessRepo, bookRepo, files, clock, logger)
	adminUC := usecase.NewAdminUsecase(txManager, userRepo, clock)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, cfg.GoEnv == "prod"),
		Book:         handler.NewBookHandler(bookUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
		Access:       handler.NewAccessHandler(accessUC),
		Notification: handler.NewNotificationHandler(notifUC),
		AdminBook:    handler.NewAdminBookHandler(bookUC),
		AdminPayment: handler.NewAdminPaymentHandler(adminPaymentUC),
		Admin:        handler.NewAdminHandler(adminUC),
	}

	//Server起動
	e := server.New(logger)
	server.RegisterRoutes(e, cfg, handlers)

	addr := ":" + cfg.Port
	if err := server.Start(e, addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
