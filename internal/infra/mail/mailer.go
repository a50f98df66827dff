package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// OTPや支払い結果のメール送信の約束。
// 送信失敗で業務処理は止めない（呼び出し側でログして握りつぶす）。
type Mailer interface {
	SendOTP(to string, name string, code string) error
	SendPaymentVerified(to string, name string, bookTitle string) error
}

type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTPMailer(host string, port int, user string, pass string, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}
}

func (m *SMTPMailer) send(to string, subject string, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	return d.DialAndSend(msg)
}

func (m *SMTPMailer) SendOTP(to string, name string, code string) error {
	body := fmt.Sprintf(
		"%s様\n\n認証コード: %s\n\n有効期限は10分です。心当たりがない場合はこのメールを無視してください。\n",
		name, code,
	)
	return m.send(to, "【Bookstore】認証コードのお知らせ", body)
}

func (m *SMTPMailer) SendPaymentVerified(to string, name string, bookTitle string) error {
	body := fmt.Sprintf(
		"%s様\n\n「%s」のお支払いを確認しました。マイページからダウンロードできます。\n",
		name, bookTitle,
	)
	return m.send(to, "【Bookstore】お支払い確認のお知らせ", body)
}
