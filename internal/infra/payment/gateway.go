package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// 決済ゲートウェイへの照会の約束。
// 管理者の証憑レビューと並ぶもう一つの確認経路で、どちらを買い手に
// 見せるかは運用側がルーティングで選ぶ。
type Gateway interface {
	//参照番号と金額が決済済みかを照会する
	VerifyPayment(ctx context.Context, paymentRef string, amount int64) (bool, error)
}

type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPGateway(baseURL string, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type verifyResponse struct {
	Settled bool  `json:"settled"`
	Amount  int64 `json:"amount"`
}

// GET {base}/v1/payments/{ref} に照会し、決済済みかつ金額一致で true。
func (g *HTTPGateway) VerifyPayment(ctx context.Context, paymentRef string, amount int64) (bool, error) {
	u := fmt.Sprintf("%s/v1/payments/%s", g.baseURL, url.PathEscape(paymentRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	res, err := g.client.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	//未決済はゲートウェイ側が404を返す仕様
	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("gateway returned %d", res.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false, err
	}

	return body.Settled && body.Amount == amount, nil
}
