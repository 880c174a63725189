package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/util"
)

// HTTPPaymentVerifier 调用外部支付服务校验解锁凭证
type HTTPPaymentVerifier struct {
	cfg    config.PaymentConfig
	client *http.Client
}

func NewPaymentVerifier(cfg config.PaymentConfig) *HTTPPaymentVerifier {
	return &HTTPPaymentVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type verifyRequest struct {
	UserID   string `json:"userId"`
	ModuleID uint   `json:"moduleId"`
	Token    string `json:"token"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

func (v *HTTPPaymentVerifier) VerifyToken(ctx context.Context, userID string, moduleID uint, token string) error {
	if token == "" {
		return util.ErrPaymentInvalid
	}

	body, err := json.Marshal(verifyRequest{UserID: userID, ModuleID: moduleID, Token: token})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.BaseURL+"/v1/entitlements/verify", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if v.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.cfg.APIKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return util.ErrPaymentInvalid
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("payment service bad response: %w", err)
	}
	if !result.Valid {
		return util.ErrPaymentInvalid
	}
	return nil
}
