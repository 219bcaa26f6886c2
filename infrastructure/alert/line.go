package alert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultLinePushURL LINE Messaging API 推送端点。
const DefaultLinePushURL = "https://api.line.me/v2/bot/message/push"

// LineChannel 经由 LINE Messaging API 推送告警的通道。
type LineChannel struct {
	url    string
	token  string
	userID string
	client *http.Client
	logger *zap.Logger
}

type linePushPayload struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewLineChannel 创建 LINE 告警通道。token 或 userID 缺失时返回错误，
// 上层据此决定是否禁用该通道。
func NewLineChannel(token, userID string, logger *zap.Logger) (*LineChannel, error) {
	if token == "" || userID == "" {
		return nil, errors.New("line alert: channel access token and user id required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineChannel{
		url:    DefaultLinePushURL,
		token:  token,
		userID: userID,
		client: &http.Client{Timeout: 8 * time.Second},
		logger: logger,
	}, nil
}

// WithEndpoint 覆盖推送端点，测试用。
func (c *LineChannel) WithEndpoint(url string) *LineChannel {
	c.url = url
	return c
}

// Send 推送一条文本消息。
func (c *LineChannel) Send(alert Alert) error {
	payload := linePushPayload{
		To:       c.userID,
		Messages: []lineMessage{{Type: "text", Text: alert.Message}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("line alert: marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line alert: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("line alert: push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("line alert: push status %d", resp.StatusCode)
	}
	c.logger.Debug("line alert sent", zap.String("to", c.userID))
	return nil
}

// Name 返回通道名称
func (c *LineChannel) Name() string {
	return "line"
}
