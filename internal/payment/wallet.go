package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const walletRequestType = "captureWallet"

// WalletConfig holds the gateway partner credentials and callback URLs. All
// secret material is injected from the environment, never hard-coded.
type WalletConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IPNURL      string
	Timeout     time.Duration
}

// WalletClient talks to the redirect-based wallet gateway. Session creation
// and callback verification share the same HMAC-SHA256 scheme over a
// canonical key=value&... concatenation of the signed fields.
type WalletClient struct {
	cfg    WalletConfig
	client *http.Client
}

func NewWalletClient(cfg WalletConfig) *WalletClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WalletClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// WalletSession is the gateway's answer to a successful create call.
type WalletSession struct {
	PayURL    string
	RequestID string
}

type walletCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type walletCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
}

// CreateSession asks the gateway for a payment page URL. Each attempt gets a
// fresh request id. On any failure the caller's order must be left untouched;
// this method has no side effects of its own.
func (c *WalletClient) CreateSession(ctx context.Context, orderID string, amount int64, orderInfo string) (*WalletSession, error) {
	requestID := uuid.NewString()

	payload := walletCreateRequest{
		PartnerCode: c.cfg.PartnerCode,
		RequestID:   requestID,
		Amount:      amount,
		OrderID:     orderID,
		OrderInfo:   orderInfo,
		RedirectURL: c.cfg.RedirectURL,
		IPNURL:      c.cfg.IPNURL,
		RequestType: walletRequestType,
		Lang:        "en",
		Signature:   c.signCreate(amount, orderID, orderInfo, requestID),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	var out walletCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("wallet gateway returned unreadable response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || out.ResultCode != 0 || out.PayURL == "" {
		return nil, &GatewayRejectedError{
			StatusCode: resp.StatusCode,
			ResultCode: out.ResultCode,
			Message:    out.Message,
		}
	}

	return &WalletSession{PayURL: out.PayURL, RequestID: requestID}, nil
}

func (c *WalletClient) signCreate(amount int64, orderID, orderInfo, requestID string) string {
	raw := fmt.Sprintf("accessKey=%s&amount=%d&extraData=&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		c.cfg.AccessKey, amount, c.cfg.IPNURL, orderID, orderInfo,
		c.cfg.PartnerCode, c.cfg.RedirectURL, requestID, walletRequestType)
	return c.sign(raw)
}

func (c *WalletClient) sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// IPNPayload is the gateway's asynchronous server-to-server notification.
type IPNPayload struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId" binding:"required"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// Succeeded reports whether the notification carries a successful payment.
func (p IPNPayload) Succeeded() bool {
	return p.ResultCode == 0
}

// VerifyIPN recomputes the signature over the fields the gateway signs and
// compares in constant time. No payload field may be trusted before this
// passes.
func (c *WalletClient) VerifyIPN(p IPNPayload) error {
	raw := fmt.Sprintf("accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		c.cfg.AccessKey, p.Amount, p.ExtraData, p.Message, p.OrderID, p.OrderInfo,
		p.OrderType, p.PartnerCode, p.PayType, p.RequestID, p.ResponseTime,
		p.ResultCode, p.TransID)
	expected := c.sign(raw)
	if !hmac.Equal([]byte(expected), []byte(p.Signature)) {
		return ErrInvalidSignature
	}
	return nil
}
