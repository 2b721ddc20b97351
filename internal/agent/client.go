// Package agent клиент HTTP API хоста и генератор событий планировщика для casectl.
package agent

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/config"
	"github.com/Mihklz/casetrail/internal/crypto"
	"github.com/Mihklz/casetrail/internal/handler"
	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/retry"
)

// StatusError ответ хоста с кодом не 2xx.
// Текст содержит статус целиком, по нему retry отличает временные ошибки.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %s", e.Status)
	}
	return fmt.Sprintf("server returned %s: %s", e.Status, e.Message)
}

// Client отправляет события на POST /publish/{message}
type Client struct {
	cfg         config.AgentConfig
	client      *http.Client
	retryConfig *retry.RetryConfig
}

// NewClient создает клиента хоста
func NewClient(cfg config.AgentConfig) *Client {
	return &Client{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.Timeout},
		retryConfig: retry.DefaultRetryConfig(),
	}
}

// compressData сжимает данные в формате gzip
func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Publish публикует событие message от originator. Временные сбои повторяются.
func (c *Client) Publish(ctx context.Context, message string, originator any, data any) error {
	body, err := encodePublish(originator, data)
	if err != nil {
		return err
	}

	err = retry.Execute(ctx, c.retryConfig, func() error {
		return c.send(ctx, message, body)
	})
	if err != nil {
		return fmt.Errorf("publish %q: %w", message, err)
	}

	logger.Log.Debug("Event published", zap.String("message", message))
	return nil
}

func encodePublish(originator any, data any) ([]byte, error) {
	rawOriginator, err := json.Marshal(originator)
	if err != nil {
		return nil, fmt.Errorf("marshal originator: %w", err)
	}

	req := handler.PublishRequest{Originator: rawOriginator}
	if data != nil {
		rawData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal data: %w", err)
		}
		req.Data = rawData
	}
	return json.Marshal(req)
}

func (c *Client) send(ctx context.Context, message string, body []byte) error {
	payload := body
	if c.cfg.Gzip {
		compressed, err := compressData(body)
		if err != nil {
			return fmt.Errorf("compress request: %w", err)
		}
		payload = compressed
	}

	endpoint := c.cfg.BaseURL() + "/publish/" + url.PathEscape(message)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	// Подпись считается по несжатому телу: сервер проверяет её после распаковки
	if c.cfg.Key != "" {
		req.Header.Set(crypto.SignatureHeader, crypto.CalculateHMAC(body, c.cfg.Key))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return statusError(resp)
	}
	return nil
}

// Channels запрашивает список каналов хоста
func (c *Client) Channels(ctx context.Context) ([]handler.ChannelInfo, error) {
	var channels []handler.ChannelInfo

	err := retry.Execute(ctx, c.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL()+"/channels", nil)
		if err != nil {
			return err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return statusError(resp)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if c.cfg.Key != "" && !crypto.ValidateHMAC(data, c.cfg.Key, resp.Header.Get(crypto.SignatureHeader)) {
			return fmt.Errorf("channels response signature mismatch")
		}
		return json.Unmarshal(data, &channels)
	})
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

func statusError(resp *http.Response) *StatusError {
	se := &StatusError{Code: resp.StatusCode, Status: resp.Status}

	var body struct {
		Error string `json:"error"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil && json.Unmarshal(data, &body) == nil {
		se.Message = body.Error
	}
	return se
}
