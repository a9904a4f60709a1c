package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"waxhands/internal/models"
)

/********** тайминги **********/
const (
	readLimit          = 1 << 20           // 1 MB
	readDeadline       = 120 * time.Second // дедлайн чтения (продлевается pong'ом)
	writeDeadline      = 5 * time.Second   // дедлайн записи
	pingInterval       = 15 * time.Second  // период пингов
	firstHelloDeadline = 30 * time.Second  // время на первый кадр {userId}
)

/*****************************/

type directMsg struct {
	userID int
	msg    models.RealtimeMessage
}

type unreg struct {
	userID int
	conn   *websocket.Conn
}

type WebSocketManager struct {
	clients    map[int]*websocket.Conn
	admins     map[int]bool
	broadcast  chan models.RealtimeMessage
	toAdmins   chan models.RealtimeMessage
	direct     chan directMsg
	register   chan Client
	unregister chan unreg
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[int]*websocket.Conn),
		admins:     make(map[int]bool),
		broadcast:  make(chan models.RealtimeMessage),
		toAdmins:   make(chan models.RealtimeMessage),
		direct:     make(chan directMsg),
		register:   make(chan Client),
		unregister: make(chan unreg),
	}
}

type Client struct {
	ID     int
	Role   string
	Socket *websocket.Conn
}

// Все операции с clients — только здесь.
func (ws *WebSocketManager) Run() {
	for {
		select {
		case client := <-ws.register:
			// если уже есть сокет у этого пользователя — закрываем старый
			if old, ok := ws.clients[client.ID]; ok && old != nil && old != client.Socket {
				_ = old.Close()
			}
			ws.clients[client.ID] = client.Socket
			if client.Role == "admin" {
				ws.admins[client.ID] = true
			}
			log.Printf("WS register user=%d role=%s", client.ID, client.Role)

		case u := <-ws.unregister:
			// удаляем только если совпадает текущий сокет
			if cur, ok := ws.clients[u.userID]; ok && cur == u.conn {
				_ = cur.Close()
				delete(ws.clients, u.userID)
				delete(ws.admins, u.userID)
				log.Printf("WS unregister user=%d", u.userID)
			}

		case msg := <-ws.broadcast:
			for id, conn := range ws.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("broadcast error to=%d: %v", id, err)
					_ = conn.Close()
					delete(ws.clients, id)
				}
			}

		case msg := <-ws.toAdmins:
			for id := range ws.admins {
				conn, ok := ws.clients[id]
				if !ok {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("admin send error to=%d: %v", id, err)
					_ = conn.Close()
					delete(ws.clients, id)
					delete(ws.admins, id)
				}
			}

		case dm := <-ws.direct:
			if conn, ok := ws.clients[dm.userID]; ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteJSON(dm.msg); err != nil {
					log.Printf("direct send error to=%d: %v", dm.userID, err)
					_ = conn.Close()
					delete(ws.clients, dm.userID)
				}
			} else {
				log.Printf("direct skip: user=%d offline", dm.userID)
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true }, // при необходимости — белый список Origin
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
}

// Первым фреймом клиент обязан прислать { "userId": <int> }.
// Канал только на доставку: входящие кадры игнорируются, соединение
// живёт за счёт ping/pong.
func (app *application) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(firstHelloDeadline)) // ждём hello
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	var hello struct {
		UserID int    `json:"userId"`
		Role   string `json:"role"`
	}
	if err := conn.ReadJSON(&hello); err != nil || hello.UserID == 0 {
		log.Println("invalid hello payload:", err)
		_ = writeClose(conn, websocket.ClosePolicyViolation, "hello required")
		_ = conn.Close()
		return
	}
	conn.SetReadDeadline(time.Now().Add(readDeadline)) // продлеваем после hello

	// роль из JWT-контекста имеет приоритет над заявленной в hello
	if role, ok := r.Context().Value("role").(string); ok && role != "" {
		hello.Role = role
	}

	client := Client{ID: hello.UserID, Role: hello.Role, Socket: conn}
	app.wsManager.register <- client

	go pingLoop(app.wsManager, conn, hello.UserID)
	go drainWebSocket(conn, hello.UserID, app.wsManager)
}

func pingLoop(ws *WebSocketManager, conn *websocket.Conn, uid int) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for range t.C {
		_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			_ = writeClose(conn, websocket.CloseGoingAway, "ping error")
			ws.unregister <- unreg{userID: uid, conn: conn}
			return
		}
	}
}

// drainWebSocket читает и отбрасывает входящие кадры, чтобы
// обрабатывались control-фреймы и обрыв связи замечался сразу.
func drainWebSocket(conn *websocket.Conn, userID int, wsManager *WebSocketManager) {
	defer func() {
		wsManager.unregister <- unreg{userID: userID, conn: conn}
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			_ = writeClose(conn, websocket.CloseNormalClosure, "read error")
			return
		}
	}
}

// аккуратная отправка close-фрейма
func writeClose(conn *websocket.Conn, code int, reason string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeDeadline),
	)
}

// settlementNotifier доставляет событие оплаты в WebSocket и пушем.
// Никогда не блокирует вызывающего: если hub занят, событие теряется.
type settlementNotifier struct {
	ws   *WebSocketManager
	push interface {
		SendToUser(ctx context.Context, userID int, title, body string, data map[string]string)
	}
}

func (n *settlementNotifier) NotifyPaid(event models.SettlementEvent) {
	msg := models.RealtimeMessage{Type: "invoice.paid", Payload: event}

	select {
	case n.ws.direct <- directMsg{userID: event.UserID, msg: msg}:
	default:
		log.Printf("notify skip: ws hub busy, user=%d invoice=%s", event.UserID, event.InvoiceID)
	}

	select {
	case n.ws.toAdmins <- msg:
	default:
		log.Printf("notify skip: admin fan-out busy, invoice=%s", event.InvoiceID)
	}

	if n.push != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			n.push.SendToUser(ctx, event.UserID, "Оплата прошла",
				fmt.Sprintf("Счёт %s оплачен", event.InvoiceID),
				map[string]string{"invoice_id": event.InvoiceID, "status": event.Status})
		}()
	}
}
