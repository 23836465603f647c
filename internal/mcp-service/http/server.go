package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/odds-mcp-server/internal/mcp-service/session"
)

const headerSessionID = "Mcp-Session-Id"

// requestTimeout limita quanto tempo uma chamada pode segurar o transporte
// antes de ser tratada como travada
const requestTimeout = 30 * time.Second

const maxBodyBytes = 1 << 20

// API expõe o endpoint MCP (streamable HTTP): POST pra mensagens de
// protocolo, GET pro stream de push por sessão, DELETE pra encerrar a sessão
type API struct {
	Sessions *session.Manager
	Log      *zap.Logger
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Accept", headerSessionID, "Last-Event-ID"},
		ExposedHeaders: []string{headerSessionID},
	}))

	r.Post("/mcp", a.postMessage)
	r.Get("/mcp", a.openStream)
	r.Delete("/mcp", a.deleteSession)
	r.Get("/health", a.health)
	return r
}

// postMessage termina uma mensagem de protocolo: resolve (ou cria) a sessão
// pelo header e despacha pro transporte correspondente
func (a *API) postMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, nil, -32700, "failed to read request body")
		return
	}

	// só o método e o id interessam aqui; o resto é opaco pro roteador
	var probe struct {
		Method string          `json:"method"`
		ID     json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		writeRPCError(w, http.StatusBadRequest, nil, -32700, "parse error: invalid JSON-RPC message")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sid := r.Header.Get(headerSessionID)

	var sess *session.Session
	switch {
	case probe.Method == "initialize":
		// requisição inicializadora sempre provisiona transporte novo;
		// id gerado pelo servidor quando o cliente não mandou nenhum
		if sid == "" {
			sess, err = a.Sessions.Create(ctx)
		} else {
			sess, err = a.Sessions.CreateWithID(ctx, sid)
		}
		if err != nil {
			a.Log.Error("session create failed", zap.Error(err))
			writeRPCError(w, http.StatusInternalServerError, probe.ID, -32603, "failed to create session")
			return
		}
	case sid == "":
		writeRPCError(w, http.StatusBadRequest, probe.ID, -32000, "bad request: missing session id on non-initialize request")
		return
	default:
		sess, err = a.Sessions.Lookup(sid)
		if err != nil {
			writeRPCError(w, http.StatusNotFound, probe.ID, -32001, fmt.Sprintf("session %s not found", sid))
			return
		}
	}

	msg := sess.HandleMessage(ctx, body)
	if probe.Method == "initialize" {
		sess.Initialize()
	}

	w.Header().Set(headerSessionID, sess.SessionID())

	// notificações não têm resposta; confirma o recebimento e pronto
	if msg == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	out, err := json.Marshal(msg)
	if err != nil {
		// nada foi escrito ainda: ainda dá pra devolver um envelope bem formado
		a.Log.Error("response marshal failed", zap.String("session_id", sess.SessionID()), zap.Error(err))
		writeRPCError(w, http.StatusInternalServerError, probe.ID, -32603, "internal error building response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		a.Log.Warn("response write failed", zap.String("session_id", sess.SessionID()), zap.Error(err))
	}
}

// openStream abre a superfície de push (SSE) de uma sessão existente.
// Sessão ausente ou desconhecida é erro do cliente, nunca ignorado
func (a *API) openStream(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(headerSessionID)
	if sid == "" {
		http.Error(w, "missing "+headerSessionID+" header", http.StatusBadRequest)
		return
	}

	sess, err := a.Sessions.Lookup(sid)
	if err != nil {
		http.Error(w, "unknown session id", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	a.Log.Debug("push stream opened", zap.String("session_id", sid))

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sess.Done():
			return
		case n := <-sess.Notifications():
			data, err := json.Marshal(n)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// deleteSession encerra a sessão por iniciativa do cliente
func (a *API) deleteSession(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(headerSessionID)
	if sid == "" {
		http.Error(w, "missing "+headerSessionID+" header", http.StatusBadRequest)
		return
	}

	if err := a.Sessions.Remove(r.Context(), sid); errors.Is(err, session.ErrNotFound) {
		http.Error(w, "unknown session id", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// health é o probe de liveness; sem auth
func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcErrorEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   rpcErrorBody    `json:"error"`
}

// writeRPCError devolve um envelope de erro JSON-RPC bem formado
func writeRPCError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string) {
	writeJSON(w, status, rpcErrorEnvelope{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErrorBody{Code: code, Message: message},
	})
}
