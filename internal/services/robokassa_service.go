package services

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"waxhands/internal/models"
)

type RobokassaConfig struct {
	MerchantLogin string

	// Боевые
	Password1 string
	Password2 string

	// Тестовые
	TestPassword1 string
	TestPassword2 string

	IsTest bool

	// пример: "https://auth.robokassa.kz/Merchant/Index.aspx"
	BaseURL string
	// OpStateExt endpoint, пример:
	// "https://auth.robokassa.kz/Merchant/WebService/Service.asmx/OpStateExt"
	StatusURL string

	// Куда вернуть пользователя после оплаты (фронт)
	SuccessPageURL string
	FailPageURL    string

	Client *http.Client
	Logger *slog.Logger
}

type RobokassaService struct {
	MerchantLogin string
	Password1     string
	Password2     string
	TestPassword1 string
	TestPassword2 string
	BaseURL       string
	StatusURL     string
	IsTest        bool

	successPageURL string
	failPageURL    string

	httpClient *http.Client
	logger     *slog.Logger
}

func NewRobokassaService(cfg RobokassaConfig) (*RobokassaService, error) {
	if strings.TrimSpace(cfg.MerchantLogin) == "" || strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("robokassa: merchant_login/base_url are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		// OpState не должен задерживать ответ вебхука дольше пары секунд
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &RobokassaService{
		MerchantLogin: cfg.MerchantLogin,
		Password1:     cfg.Password1,
		Password2:     cfg.Password2,
		TestPassword1: cfg.TestPassword1,
		TestPassword2: cfg.TestPassword2,
		BaseURL:       cfg.BaseURL,
		StatusURL:     cfg.StatusURL,
		IsTest:        cfg.IsTest,

		successPageURL: cfg.SuccessPageURL,
		failPageURL:    cfg.FailPageURL,

		httpClient: client,
		logger:     logger,
	}, nil
}

func (s *RobokassaService) SuccessPageURL() string { return s.successPageURL }
func (s *RobokassaService) FailPageURL() string    { return s.failPageURL }

func (s *RobokassaService) pass1() string {
	if s.IsTest && s.TestPassword1 != "" {
		return s.TestPassword1
	}
	return s.Password1
}

func (s *RobokassaService) pass2() string {
	if s.IsTest && s.TestPassword2 != "" {
		return s.TestPassword2
	}
	return s.Password2
}

// GeneratePayURL — формирование ссылки на оплату.
// Подпись: md5(MerchantLogin:OutSum:InvId:Password1)
func (s *RobokassaService) GeneratePayURL(invID int64, outSum float64, description string) (string, error) {
	raw := fmt.Sprintf("%s:%.2f:%d:%s", s.MerchantLogin, outSum, invID, s.pass1())
	sig := fmt.Sprintf("%x", md5.Sum([]byte(raw)))

	params := url.Values{}
	params.Set("MerchantLogin", s.MerchantLogin)
	params.Set("OutSum", fmt.Sprintf("%.2f", outSum))
	params.Set("InvId", strconv.FormatInt(invID, 10))
	params.Set("Description", description)
	params.Set("SignatureValue", strings.ToUpper(sig))
	if s.IsTest {
		params.Set("IsTest", "1")
	}

	return fmt.Sprintf("%s?%s", s.BaseURL, params.Encode()), nil
}

// VerifyResult validates the webhook signature md5(OutSum:InvId:Password2).
// The raw OutSum string participates as received. Comparison is
// constant-time; an empty or malformed signature is just a mismatch.
func (s *RobokassaService) VerifyResult(outSum, invID, signature string) bool {
	return verifySignature(outSum, invID, s.pass2(), signature)
}

// VerifySuccess checks the browser success-redirect signature, which Robokassa
// computes over Password1. Advisory only: the authoritative settlement comes
// through the webhook, so the caller logs a failure and redirects anyway.
func (s *RobokassaService) VerifySuccess(outSum, invID, signature string) bool {
	return verifySignature(outSum, invID, s.pass1(), signature)
}

func verifySignature(outSum, invID, password, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	raw := fmt.Sprintf("%s:%s:%s", outSum, invID, password)
	expected := fmt.Sprintf("%x", md5.Sum([]byte(raw)))
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(signature)), []byte(expected)) == 1
}

// ParseNotification собирает типизированное уведомление из query/form
// параметров. Robokassa шлёт PascalCase, некоторые интеграции — camelCase.
func ParseNotification(values url.Values) (models.PaymentNotification, error) {
	pick := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(values.Get(k)); v != "" {
				return v
			}
		}
		return ""
	}

	n := models.PaymentNotification{
		InvID:     pick("InvId", "invId"),
		OutSum:    pick("OutSum", "outSum"),
		Signature: pick("SignatureValue", "signatureValue"),
		Fee:       pick("Fee", "fee"),
	}
	if n.InvID == "" {
		return models.PaymentNotification{}, errors.New("robokassa: missing InvId")
	}
	if n.OutSum == "" {
		return models.PaymentNotification{}, errors.New("robokassa: missing OutSum")
	}
	amount, err := strconv.ParseFloat(n.OutSum, 64)
	if err != nil {
		return models.PaymentNotification{}, fmt.Errorf("robokassa: parse OutSum: %w", err)
	}
	n.Amount = amount
	return n, nil
}

// opStateResponse mirrors the OpStateExt XML body; only the fields the refund
// flow needs are mapped.
type opStateResponse struct {
	XMLName xml.Name `xml:"OperationStateResponse"`
	Result  struct {
		Code        int    `xml:"Code"`
		Description string `xml:"Description"`
	} `xml:"Result"`
	State struct {
		Code int `xml:"Code"`
	} `xml:"State"`
	Info struct {
		OpKey string `xml:"OpKey"`
	} `xml:"Info"`
}

// FetchOperationKey запрашивает OpState и возвращает ключ операции для
// последующих возвратов. Подпись запроса: md5(MerchantLogin:InvoiceID:Password2)
func (s *RobokassaService) FetchOperationKey(ctx context.Context, invID int64) (string, error) {
	if strings.TrimSpace(s.StatusURL) == "" {
		return "", errors.New("robokassa: status url is not configured")
	}

	raw := fmt.Sprintf("%s:%d:%s", s.MerchantLogin, invID, s.pass2())
	sig := fmt.Sprintf("%x", md5.Sum([]byte(raw)))

	params := url.Values{}
	params.Set("MerchantLogin", s.MerchantLogin)
	params.Set("InvoiceID", strconv.FormatInt(invID, 10))
	params.Set("Signature", sig)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.StatusURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("opstate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("opstate: %s %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var out opStateResponse
	if err := xml.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("opstate decode: %w", err)
	}
	if out.Result.Code != 0 {
		return "", fmt.Errorf("opstate: code %d: %s", out.Result.Code, out.Result.Description)
	}
	if strings.TrimSpace(out.Info.OpKey) == "" {
		return "", errors.New("opstate: empty OpKey")
	}
	return out.Info.OpKey, nil
}
