package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Session é uma conversa identificada entre um cliente e o servidor, dona de
// uma instância própria de servidor de protocolo e do canal de push.
// Implementa server.ClientSession do mcp-go
type Session struct {
	id            string
	srv           *server.MCPServer
	notifications chan mcp.JSONRPCNotification
	done          chan struct{}

	// serializa chamadas concorrentes da mesma sessão; sessões distintas
	// nunca se bloqueiam
	handleMu sync.Mutex

	mu          sync.Mutex
	initialized bool
	closed      bool
}

func newSession(id string, srv *server.MCPServer) *Session {
	return &Session{
		id:            id,
		srv:           srv,
		notifications: make(chan mcp.JSONRPCNotification, 100),
		done:          make(chan struct{}),
	}
}

func (s *Session) SessionID() string { return s.id }

func (s *Session) NotificationChannel() chan<- mcp.JSONRPCNotification {
	return s.notifications
}

func (s *Session) Initialize() {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// HandleMessage entrega uma mensagem de protocolo ao servidor da sessão.
// Retorna nil quando a mensagem é uma notificação (sem resposta) ou quando a
// sessão já foi encerrada
func (s *Session) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	if s.isClosed() {
		return nil
	}

	ctx = s.srv.WithContext(ctx, s)
	return s.srv.HandleMessage(ctx, raw)
}

// Notifications expõe o lado de leitura do canal de push (superfície GET)
func (s *Session) Notifications() <-chan mcp.JSONRPCNotification {
	return s.notifications
}

// Done fecha quando a sessão é encerrada; usado pra derrubar streams abertos
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// close marca a sessão como encerrada de forma idempotente
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}
