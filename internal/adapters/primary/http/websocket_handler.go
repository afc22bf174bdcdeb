package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	mw "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/websocket"
	"github.com/lorrc/cloudkitchen-backend/internal/auth"
	"github.com/lorrc/cloudkitchen-backend/internal/config"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

// WebSocketHandler upgrades admin dashboard connections
type WebSocketHandler struct {
	hub       *wsAdapter.Hub
	tm        *auth.TokenManager
	upgrader  websocket.Upgrader
	clientCfg wsAdapter.ClientConfig
	logger    *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tm *auth.TokenManager,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:    hub,
		tm:     tm,
		logger: logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg.WebSocket.AllowedOrigins, cfg.IsDevelopment()),
	}

	clientCfg := wsAdapter.DefaultClientConfig()
	if cfg.WebSocket.PongWait > 0 {
		clientCfg.PongWait = cfg.WebSocket.PongWait
	}
	if cfg.WebSocket.PingInterval > 0 {
		clientCfg.PingPeriod = cfg.WebSocket.PingInterval
	}
	if cfg.WebSocket.SendBuffer > 0 {
		clientCfg.SendBuffer = cfg.WebSocket.SendBuffer
	}
	handler.clientCfg = clientCfg

	return handler
}

// makeOriginChecker accepts exact hosts and "*.example.com" wildcards
func (h *WebSocketHandler) makeOriginChecker(allowedOrigins []string, development bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		if development {
			if origin != "" {
				h.logger.Debug("allowing websocket origin in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// Same-origin request or non-browser client
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		originHost := parsedOrigin.Host
		for _, allowed := range allowedOrigins {
			if host := hostOf(allowed); strings.HasPrefix(host, "*.") {
				suffix := host[1:]
				if strings.HasSuffix(originHost, suffix) || originHost == host[2:] {
					return true
				}
			} else if originHost == host {
				return true
			}
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
		)
		return false
	}
}

// hostOf strips an optional scheme so origins may be configured either way.
func hostOf(origin string) string {
	if i := strings.Index(origin, "://"); i >= 0 {
		return strings.TrimSuffix(origin[i+3:], "/")
	}
	return origin
}

// ServeHTTP authenticates an admin and hands the upgraded socket to the hub
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.hub.Running() {
		h.logger.WarnContext(ctx, "websocket connection rejected: hub not running")
		http.Error(w, "Notifications unavailable", http.StatusServiceUnavailable)
		return
	}

	// Browsers cannot set headers on a websocket handshake, so the token may
	// arrive as a query parameter.
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		tokenString, _ = mw.BearerToken(r)
	}
	if tokenString == "" {
		h.logger.WarnContext(ctx, "websocket connection rejected: missing token",
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tm.ValidateToken(tokenString)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket connection rejected: invalid token",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}
	if !claims.HasRole(domain.RoleAdmin) {
		h.logger.WarnContext(ctx, "websocket connection rejected: not an admin",
			"user_id", claims.UserID,
			"role", claims.Role,
		)
		http.Error(w, "Admin access required", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upgrade websocket connection",
			"user_id", claims.UserID,
			"error", err,
		)
		return
	}

	client := wsAdapter.NewClient(h.hub, conn, claims.UserID, h.clientCfg, h.logger)
	h.logger.InfoContext(ctx, "websocket connection established",
		"connection_id", client.ID(),
		"user_id", claims.UserID,
		"remote_addr", r.RemoteAddr,
	)
	client.Start()
}
