// Package server exposes the board over HTTP: the websocket endpoint that
// carries room traffic, plus health, metrics and room/session listings.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"drawing-board/internal/conn"
	"drawing-board/internal/metrics"
	"drawing-board/internal/room"
	"drawing-board/internal/store"
)

// Options tunes a Server. Zero values fall back to sensible defaults.
type Options struct {
	PublicURL      string
	StaticDir      string
	AllowedOrigins []string
	SendBuffer     int
	StoreTimeout   time.Duration
}

// Server wires the room registry and the snapshot store to HTTP.
type Server struct {
	rooms    *room.Registry
	sessions store.Store
	opts     Options
	log      zerolog.Logger
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

func New(rooms *room.Registry, sessions store.Store, opts Options, log zerolog.Logger) *Server {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 10 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		rooms:    rooms,
		sessions: sessions,
		opts:     opts,
		log:      log.With().Str("module", "server").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.log))

	r.GET("/ws", s.handleWebSocket)
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/rooms", s.handleRooms)
	r.GET("/api/rooms/:name", s.handleRoom)
	r.GET("/api/sessions", s.handleSessions)
	r.GET("/api/sessions/:name", s.handleSession)

	if s.opts.StaticDir != "" {
		if _, err := os.Stat(s.opts.StaticDir); err == nil {
			r.Static("/static", s.opts.StaticDir)
			index := filepath.Join(s.opts.StaticDir, "index.html")
			r.StaticFile("/", index)
			r.GET("/room/:room", func(c *gin.Context) { c.File(index) })
		}
	}
	return r
}

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})(s.engine)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := conn.New(ws, s.opts.SendBuffer, s.log)
	metrics.Connections.Inc()
	s.log.Info().Str("conn", sess.ID()).Str("remote_addr", c.Request.RemoteAddr).Msg("client connected")

	p := &peer{srv: s, sess: sess, log: s.log.With().Str("conn", sess.ID()).Logger()}
	go sess.WritePump()
	sess.ReadPump(p.handle)

	ident := sess.Identity()
	p.leave()
	sess.Close()
	metrics.Connections.Dec()
	s.log.Info().Str("conn", sess.ID()).Str("username", ident.Username).Msg("client disconnected")
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": s.rooms.Len()})
}

func (s *Server) handleRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.rooms.List(false)})
}

// handleRoom describes one public room. Private rooms are reported as
// missing.
func (s *Server) handleRoom(c *gin.Context) {
	rm, ok := s.rooms.Lookup(c.Param("name"))
	if !ok || rm.IsPrivate() {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	members, err := rm.Members()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	actions, err := rm.Snapshot()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": rm.Name(), "members": len(members), "actions": len(actions)})
}

func (s *Server) handleSession(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.StoreTimeout)
	defer cancel()

	name := c.Param("name")
	l, err := s.sessions.Load(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	case errors.Is(err, store.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session name"})
		return
	case err != nil:
		s.log.Error().Err(err).Str("session", name).Msg("describe session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": describe(err, name)})
		return
	}

	body := gin.H{"name": name, "actions": len(l)}
	rev, err := store.RevisionOf(ctx, s.sessions, name)
	if err != nil {
		s.log.Warn().Err(err).Str("session", name).Msg("revision unavailable")
	} else if rev != "" {
		body["revision"] = rev
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleSessions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.StoreTimeout)
	defer cancel()

	names, err := s.sessions.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list sessions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": names})
}

// requestLogger logs each request once it completes.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("remote_addr", c.ClientIP()).
			Msg("request completed")
	}
}
