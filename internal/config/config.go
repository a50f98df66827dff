package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret string // JWT署名シークレット

	GoEnv string // dev/prod

	// ストレージ（s3 / local）
	StorageDriver string
	LocalDir      string
	AWSRegion     string
	AWSBucket     string
	AWSAccessKey  string
	AWSSecretKey  string

	// SMTP（OTPメール）
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// 決済ゲートウェイ照会
	GatewayURL    string
	GatewayAPIKey string

	// QR・振込案内に載せる振込先
	BankName      string
	BankAccount   string
	BankAccountNo string
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		GoEnv:     getenv("GO_ENV", "dev"),

		StorageDriver: getenv("STORAGE_DRIVER", "local"),
		LocalDir:      getenv("STORAGE_LOCAL_DIR", "./data"),
		AWSRegion:     os.Getenv("AWS_REGION"),
		AWSBucket:     os.Getenv("AWS_S3_BUCKET_NAME"),
		AWSAccessKey:  os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:  os.Getenv("AWS_SECRET_ACCESS_KEY"),

		SMTPHost: getenv("SMTP_HOST", "localhost"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: getenv("MAIL_FROM", "noreply@bookstore.local"),

		GatewayURL:    os.Getenv("PAYMENT_GATEWAY_URL"),
		GatewayAPIKey: os.Getenv("PAYMENT_GATEWAY_API_KEY"),

		BankName:      getenv("BANK_NAME", "Bookstore Bank"),
		BankAccount:   getenv("BANK_ACCOUNT_NAME", "BOOKSTORE LTD"),
		BankAccountNo: getenv("BANK_ACCOUNT_NUMBER", "0000000000"),
	}

	smtpPort, err := atoiDefault("SMTP_PORT", 587)
	if err != nil {
		return Config{}, err
	}
	cfg.SMTPPort = smtpPort

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.StorageDriver == "s3" {
		if cfg.AWSRegion == "" {
			return Config{}, fmt.Errorf("AWS_REGION is required")
		}
		if cfg.AWSBucket == "" {
			return Config{}, fmt.Errorf("AWS_S3_BUCKET_NAME is required")
		}
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
