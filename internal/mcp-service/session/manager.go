package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/radieske/odds-mcp-server/internal/shared/metrics"
)

// ErrNotFound indica id de sessão desconhecido numa requisição que não é de
// inicialização; erro visível pro cliente, rejeitado antes de qualquer chamada
// ao provedor
var ErrNotFound = errors.New("session not found")

// Manager é a tabela de sessões: id -> transporte vivo. Estado compartilhado
// por toda requisição inbound; inserção e remoção são atômicas em relação a
// requisições intercaladas de outras sessões
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	// fábrica de servidores de protocolo: cada sessão recebe uma instância
	// nova com o conjunto de ferramentas registrado
	factory func() *server.MCPServer
	log     *zap.Logger
}

func NewManager(factory func() *server.MCPServer, log *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		factory:  factory,
		log:      log,
	}
}

// Create provisiona uma sessão nova com id gerado pelo servidor
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	return m.CreateWithID(ctx, uuid.NewString())
}

// CreateWithID provisiona uma sessão nova com o id dado (requisição de
// inicialização com id do cliente). Um id só aponta pra um transporte vivo
// por vez: transporte anterior com o mesmo id é encerrado antes
func (m *Manager) CreateWithID(ctx context.Context, id string) (*Session, error) {
	if err := m.Remove(ctx, id); err == nil {
		m.log.Info("session replaced on re-initialize", zap.String("session_id", id))
	}

	s := newSession(id, m.factory())
	if err := s.srv.RegisterSession(ctx, s); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	metrics.ActiveSessions.Inc()
	m.log.Info("session created", zap.String("session_id", id))
	return s, nil
}

// Lookup resolve um id pra sessão aberta correspondente
func (m *Manager) Lookup(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove encerra a sessão e tira ela da tabela; única limpeza exigida —
// nenhum estado sobrevive fora da tabela
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	s.close()
	s.srv.UnregisterSession(ctx, id)
	metrics.ActiveSessions.Dec()
	m.log.Info("session closed", zap.String("session_id", id))
	return nil
}

// Len retorna o número de sessões abertas
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll encerra todas as sessões no shutdown; erros são logados, não fatais
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if err := m.Remove(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			m.log.Warn("session close failed", zap.String("session_id", id), zap.Error(err))
		}
	}
}
