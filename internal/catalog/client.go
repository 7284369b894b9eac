package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrRateLimited возвращается, если источник меню ответил 429.
var ErrRateLimited = errors.New("menu source rate limited")

// Client загружает меню из удалённого JSON-источника.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент источника меню.
func NewClient(url string) *Client {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Fetch запрашивает меню. При ответе 429 возвращает ErrRateLimited и время из Retry-After.
func (c *Client) Fetch(ctx context.Context) (*Catalog, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return nil, retryAfter, ErrRateLimited
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	menu, err := Parse(body)
	if err != nil {
		return nil, 0, err
	}
	return menu, 0, nil
}

// Load загружает меню из client, повторяя запрос после 429 не дольше maxWait.
// Если client равен nil или источник недоступен, используется встроенное меню.
func Load(ctx context.Context, client *Client, logger *zap.Logger, maxWait time.Duration) (*Catalog, error) {
	if client == nil {
		return Default()
	}

	for attempt := 0; attempt < 3; attempt++ {
		c, retryAfter, err := client.Fetch(ctx)
		if err == nil {
			logger.Info("menu loaded from remote source", zap.String("url", client.url), zap.Int("items", len(c.items)))
			return c, nil
		}

		logger.Warn("fetch menu failed", zap.Error(err), zap.Int("attempt", attempt+1))
		if !errors.Is(err, ErrRateLimited) {
			break
		}

		if retryAfter > maxWait {
			retryAfter = maxWait
		}
		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Default()
		case <-timer.C:
		}
	}

	logger.Warn("falling back to embedded menu")
	return Default()
}
