package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// 支払い案内に埋め込む銀行情報。
type BankDetails struct {
	BankName      string
	AccountName   string
	AccountNumber string
}

// PaymentInstruction は金額・参照番号・振込先から人が読める案内文を作る。
// 状態ではなく表示物なので、注文作成時に一度だけ生成して注文に書き込む。
func PaymentInstruction(amount int64, paymentRef string, bank BankDetails) string {
	return fmt.Sprintf(
		"PAY %d | REF %s | %s %s %s",
		amount, paymentRef, bank.BankName, bank.AccountNumber, bank.AccountName,
	)
}

// PaymentQR は案内文をQRコードにし、PNGのdata URLで返す。
func PaymentQR(amount int64, paymentRef string, bank BankDetails) (string, error) {
	png, err := qrcode.Encode(PaymentInstruction(amount, paymentRef, bank), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
