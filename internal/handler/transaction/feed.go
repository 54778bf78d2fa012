package transaction

import (
	"context"
	"net/http"
	"scalpbot/internal/model"
	"scalpbot/internal/transaction"
	"scalpbot/pkg/logger"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	// 每个连接的发送队列长度，满了就丢弃
	sendBuffer = 256
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var _ transaction.Sink = (*Feed)(nil)

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	filter model.TransactionQuery
}

// Feed 把新产生的流水推送给 websocket 订阅者，同时作为 Sink 挂在策略的输出上
type Feed struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

func NewFeed() *Feed {
	return &Feed{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // 允许跨域
		},
	}
}

// Save 广播给过滤条件匹配的连接，不阻塞策略
func (f *Feed) Save(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.clients) == 0 {
		return record, nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return record, err
	}
	for c := range f.clients {
		if !accept(c.filter, record) {
			continue
		}
		select {
		case c.send <- data:
		default:
			logger.Warnf("transaction feed: client %s is slow, dropping record %d", c.conn.RemoteAddr(), record.ID)
		}
	}
	return record, nil
}

func accept(q model.TransactionQuery, r model.TransactionRecord) bool {
	if q.Side != "" && q.Side != r.Side {
		return false
	}
	return q.Market == "" || q.Market == r.Market
}

func (f *Feed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Serve 升级连接并阻塞到客户端断开
func (f *Feed) Serve(w http.ResponseWriter, r *http.Request, filter model.TransactionQuery) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("transaction feed upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), filter: filter}

	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()

	go c.writePump()
	c.readPump()

	f.mu.Lock()
	delete(f.clients, c)
	close(c.send)
	f.mu.Unlock()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Warnf("transaction feed write error: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只处理 pong 和关闭，客户端发来的数据丢弃
func (c *client) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
