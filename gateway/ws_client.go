package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stock-advisor-go/market"
)

// Handler 接收解析后的行情事件。回调可能来自读取协程，
// 实现方自行保证线程安全。
type Handler interface {
	OnTickReceived(t market.Tick)
	OnBest5(q market.Best5Quote)
}

// ErrNotLoggedIn 在未登录时调用 Subscribe/Run 返回。
var ErrNotLoggedIn = errors.New("gateway: not logged in")

// opMessage 行情源的控制帧。
type opMessage struct {
	Op       string `json:"op"` // "login" / "subscribe" / "subscribeBest5"
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
}

type opReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// WSFeedClient 经纪商行情 websocket 客户端：登录建立会话，
// 按股票订阅逐笔与五档，Run 循环读取并分发。
type WSFeedClient struct {
	Endpoint string
	Dialer   *websocket.Dialer
	Location *time.Location // tick 时间所属时区，默认 Local

	logger *zap.Logger

	mu   sync.Mutex // 保护连接写入
	conn *websocket.Conn
}

// NewWSFeedClient 创建行情客户端。
func NewWSFeedClient(endpoint string, logger *zap.Logger) *WSFeedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSFeedClient{
		Endpoint: endpoint,
		Dialer:   websocket.DefaultDialer,
		Location: time.Local,
		logger:   logger,
	}
}

// Login 建立连接并完成认证。失败时由调用方决定中止，这里不重试。
func (c *WSFeedClient) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("gateway: username and password required")
	}

	conn, _, err := c.Dialer.DialContext(ctx, c.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.Endpoint, err)
	}

	if err := conn.WriteJSON(opMessage{Op: "login", Username: username, Password: password}); err != nil {
		conn.Close()
		return fmt.Errorf("send login: %w", err)
	}
	var reply opReply
	if err := conn.ReadJSON(&reply); err != nil {
		conn.Close()
		return fmt.Errorf("read login reply: %w", err)
	}
	if !reply.OK {
		conn.Close()
		return fmt.Errorf("login rejected: %s", reply.Error)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("feed login ok", zap.String("endpoint", c.Endpoint))
	return nil
}

// Subscribe 订阅指定股票的逐笔成交与五档报价。
func (c *WSFeedClient) Subscribe(symbol string) error {
	if symbol == "" {
		return errors.New("gateway: symbol required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotLoggedIn
	}
	if err := c.conn.WriteJSON(opMessage{Op: "subscribe", Symbol: symbol}); err != nil {
		return fmt.Errorf("subscribe %s: %w", symbol, err)
	}
	if err := c.conn.WriteJSON(opMessage{Op: "subscribeBest5", Symbol: symbol}); err != nil {
		return fmt.Errorf("subscribe best5 %s: %w", symbol, err)
	}
	return nil
}

// Run 循环读取行情帧并分发给 handler，直到 ctx 取消或连接中断。
// 单条消息解析失败只记日志，不中断读取。
func (c *WSFeedClient) Run(ctx context.Context, handler Handler) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotLoggedIn
	}

	// ctx 取消时关闭连接，打断阻塞中的 ReadMessage
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read feed: %w", err)
		}
		c.dispatch(raw, handler)
	}
}

func (c *WSFeedClient) dispatch(raw []byte, handler Handler) {
	kind, data, err := ParseEnvelope(raw)
	if err != nil {
		c.logger.Warn("malformed feed message", zap.Error(err))
		return
	}
	switch kind {
	case "tick":
		t, err := ParseTick(data, c.Location)
		if err != nil {
			c.logger.Warn("malformed tick", zap.Error(err))
			return
		}
		if handler != nil {
			handler.OnTickReceived(t)
		}
	case "best5":
		q, err := ParseBest5(data, c.Location, time.Now())
		if err != nil {
			c.logger.Warn("malformed best5", zap.Error(err))
			return
		}
		if handler != nil {
			handler.OnBest5(q)
		}
	default:
		c.logger.Debug("unknown feed message type", zap.String("type", kind))
	}
}

// Close 关闭底层连接。
func (c *WSFeedClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
