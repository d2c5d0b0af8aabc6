package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/viper"
)

// PaymentQRService renders the UPI payment QR shown on the fee/top-up page.
// The payload is cached in redis under a nonce so a submitted proof can be
// matched back to the instructions it was generated for.
type PaymentQRService struct {
	redis *redis.Client
	payee string
	ttl   time.Duration
}

func NewPaymentQRService(redisClient *redis.Client) *PaymentQRService {
	viper.SetDefault("payments.upi_id", "estatehub@upi")
	viper.SetDefault("payments.qr_ttl_minutes", 15)

	return &PaymentQRService{
		redis: redisClient,
		payee: viper.GetString("payments.upi_id"),
		ttl:   time.Duration(viper.GetInt("payments.qr_ttl_minutes")) * time.Minute,
	}
}

// Generate returns the UPI payment string and a base64 PNG QR for it.
func (s *PaymentQRService) Generate(ctx context.Context, accountID string, amount int64, purpose string) (string, string, error) {
	nonce := s.generateNonce()

	// UPI deep link; amount is converted from minor units.
	upiString := fmt.Sprintf("upi://pay?pa=%s&pn=EstateHub&am=%d.%02d&cu=INR&tn=%s-%s",
		s.payee, amount/100, amount%100, purpose, nonce)

	if s.redis != nil {
		payload, err := json.Marshal(map[string]any{
			"accountId": accountID,
			"amount":    amount,
			"purpose":   purpose,
			"timestamp": time.Now().Unix(),
		})
		if err != nil {
			return "", "", err
		}

		key := fmt.Sprintf("payqr:%s", nonce)
		if err := s.redis.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			return "", "", err
		}
	}

	qr, err := qrcode.New(upiString, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return upiString, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Lookup resolves a QR nonce back to the instructions it encoded. Expired or
// unknown nonces fail; the entry stays until TTL so retried submissions still
// resolve.
func (s *PaymentQRService) Lookup(ctx context.Context, nonce string) (map[string]any, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("qr lookup unavailable")
	}

	key := fmt.Sprintf("payqr:%s", nonce)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired QR code")
	}
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PaymentQRService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
