package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// SignInRequest: данные, переданные браузером после интерактивного входа у провайдера.
type SignInRequest struct {
	Credential string `json:"credential"`
	Origin     string `json:"origin,omitempty"`
}

// Client инкапсулирует HTTP-взаимодействие с провайдером идентификации.
// Сетевые сбои и ответы 5xx повторяются с экспоненциальной задержкой.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

type signInResponse struct {
	IDToken string `json:"idToken"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient создаёт HTTP-клиент для обращения к провайдеру по указанному адресу.
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.RetryMax = 2
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc,
	}
}

// SignInInteractive обменивает учётные данные на ID-токен провайдера.
func (c *Client) SignInInteractive(ctx context.Context, in SignInRequest) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", &Error{Code: CodeOperationNotAllowed}
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	body, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/signin", body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", &Error{Code: CodePopupClosed}
		}
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error.Code == "" {
			return "", &Error{Code: Code("auth/internal-error"), Message: fmt.Sprintf("unexpected status: %d", resp.StatusCode)}
		}
		return "", &Error{Code: Code(e.Error.Code), Message: e.Error.Message}
	}

	var result signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.IDToken == "" {
		return "", fmt.Errorf("empty id token")
	}

	return result.IDToken, nil
}
