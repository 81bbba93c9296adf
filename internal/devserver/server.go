package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/cristianoliveira/hostel-intray/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	shutdownTimeout  = 5 * time.Second
	wsWriteTimeout   = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Paths      api.Paths
	StreamPath string
	WSPath     string
	// PingInterval is the keep-alive period of Run's ping loop.
	PingInterval time.Duration
	// Token, when set, is required as a bearer token on every route but /metrics.
	Token  string
	Logger logging.Logger
}

// DefaultOptions returns the paths the client uses by default.
func DefaultOptions() Options {
	return Options{
		Paths:        api.DefaultPaths(),
		StreamPath:   "/api/notifications/stream",
		WSPath:       "/api/notifications/ws",
		PingInterval: 25 * time.Second,
	}
}

// Server serves the notification endpoints over gin.
type Server struct {
	store    *Store
	hub      *Hub
	opts     Options
	logger   logging.Logger
	metrics  *metricCollector
	registry *prometheus.Registry
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

// New creates a server around store.
func New(store *Store, opts Options) *Server {
	defaults := DefaultOptions()
	if opts.Paths == (api.Paths{}) {
		opts.Paths = defaults.Paths
	}
	if opts.StreamPath == "" {
		opts.StreamPath = defaults.StreamPath
	}
	if opts.WSPath == "" {
		opts.WSPath = defaults.WSPath
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaults.PingInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobal()
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		store:    store,
		hub:      NewHub(),
		opts:     opts,
		logger:   opts.Logger.With("component", "devserver"),
		metrics:  newMetricCollector(registry),
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the subscriber hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.observe())

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	authed := engine.Group("/", s.authorize())
	authed.GET(s.opts.Paths.Page, s.onList)
	authed.POST(s.opts.Paths.Page, s.onCreate)
	authed.GET(s.opts.Paths.Unread, s.onUnreadCount)
	authed.PATCH(s.opts.Paths.MarkRead, s.onMarkAllRead)
	authed.GET(s.opts.StreamPath, s.onStream)
	authed.GET(s.opts.WSPath, s.onWebSocket)
	return engine
}

func (s *Server) observe() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := ctx.Writer.Status()
		s.metrics.requestCounter.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(status)).Inc()
		s.logger.Debug("request", "method", ctx.Request.Method, "route", route, "status", status, "elapsed", time.Since(start))
	}
}

func (s *Server) authorize() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if s.opts.Token == "" {
			ctx.Next()
			return
		}
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != s.opts.Token {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}
		ctx.Next()
	}
}

func failed(ctx *gin.Context, status int, err error) {
	ctx.JSON(status, gin.H{"success": false, "message": err.Error()})
}

func queryInt(ctx *gin.Context, name string, def int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func (s *Server) onList(ctx *gin.Context) {
	limit, err := queryInt(ctx, "limit", defaultPageLimit)
	if err != nil {
		failed(ctx, http.StatusBadRequest, err)
		return
	}
	skip, err := queryInt(ctx, "skip", 0)
	if err != nil {
		failed(ctx, http.StatusBadRequest, err)
		return
	}
	limit = min(max(limit, 1), maxPageLimit)

	items, hasMore, err := s.store.List(ctx.Request.Context(), limit, skip)
	if err != nil {
		s.logger.Error("list failed", "error", err)
		failed(ctx, http.StatusInternalServerError, err)
		return
	}
	payloads := make([]domain.Payload, len(items))
	for i, n := range items {
		payloads[i] = domain.NewPayload(n)
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "notifications": payloads, "hasMore": hasMore})
}

func (s *Server) onUnreadCount(ctx *gin.Context) {
	n, err := s.store.UnreadCount(ctx.Request.Context())
	if err != nil {
		s.logger.Error("unread count failed", "error", err)
		failed(ctx, http.StatusInternalServerError, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "count": n})
}

func (s *Server) onMarkAllRead(ctx *gin.Context) {
	n, err := s.store.MarkAllRead(ctx.Request.Context())
	if err != nil {
		s.logger.Error("mark all read failed", "error", err)
		failed(ctx, http.StatusInternalServerError, err)
		return
	}
	s.metrics.markedReadCount.Add(float64(n))
	ctx.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}

func (s *Server) onCreate(ctx *gin.Context) {
	var req CreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		failed(ctx, http.StatusBadRequest, err)
		return
	}
	n, err := s.Publish(ctx.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidNotification) {
			status = http.StatusBadRequest
		}
		failed(ctx, status, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"success": true, "notification": domain.NewPayload(n)})
}

// Publish stores a notification and pushes it to every subscriber.
func (s *Server) Publish(ctx context.Context, req CreateRequest) (domain.Notification, error) {
	n, err := s.store.Create(ctx, req)
	if err != nil {
		return domain.Notification{}, err
	}
	delivered, err := s.hub.Publish(n)
	if err != nil {
		return n, fmt.Errorf("encoding push frame: %w", err)
	}
	s.metrics.publishedCounter.WithLabelValues(string(n.Kind)).Inc()
	s.metrics.deliveredCounter.Add(float64(delivered))
	s.logger.Info("notification published", "id", n.ID, "type", n.Kind.String(), "delivered", delivered)
	return n, nil
}

func (s *Server) onStream(ctx *gin.Context) {
	w := ctx.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		failed(ctx, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	frames, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()
	gauge := s.metrics.subscriberGauge.WithLabelValues("sse")
	gauge.Inc()
	defer gauge.Dec()

	send := func(frame []byte) bool {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send(connectedFrame) {
		return
	}

	done := ctx.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case frame, ok := <-frames:
			if !ok || !send(frame) {
				return
			}
		}
	}
}

func (s *Server) onWebSocket(ctx *gin.Context) {
	conn, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	frames, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()
	gauge := s.metrics.subscriberGauge.WithLabelValues("websocket")
	gauge.Inc()
	defer gauge.Dec()

	// The reader only notices the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(frame []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteMessage(websocket.TextMessage, frame) == nil
	}
	if !send(connectedFrame) {
		return
	}

	done := ctx.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case <-gone:
			return
		case frame, ok := <-frames:
			if !ok || !send(frame) {
				return
			}
		}
	}
}

// PingLoop broadcasts a ping frame every interval until ctx is done.
func (s *Server) PingLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.hub.Broadcast(pingFrame)
		}
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	group, groupCtx := errgroup.WithContext(ctx)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		// Open streams end with the server.
		BaseContext: func(net.Listener) context.Context { return groupCtx },
	}

	group.Go(func() error {
		s.logger.Info("serving", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	group.Go(func() error {
		return s.PingLoop(groupCtx, s.opts.PingInterval)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return group.Wait()
}
