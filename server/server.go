package server

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sketchflow-xyz/go-sketchflow/batch"
	"github.com/sketchflow-xyz/go-sketchflow/history"
	"github.com/sketchflow-xyz/go-sketchflow/instance"
	"github.com/sketchflow-xyz/go-sketchflow/scene"
)

// APIError is the error payload returned by the HTTP endpoints.
type APIError struct {
	Message string `json:"error"`
}

// BatchRequest is the body of a batch execution call.
type BatchRequest struct {
	Script string `json:"script" binding:"required"`
}

// Server serves one shared document. A mutex serializes batches and undo
// against it; readers see the store only between commits because all
// intermediate mutation happens on the executor's working copy.
type Server struct {
	logger zerolog.Logger
	doc    *scene.Store
	mu     sync.Mutex
	exec   *batch.Executor
	hist   history.Store
	hub    *Hub
	router *gin.Engine
}

// New wires the engine, history, and websocket hub into a gin router.
func New(doc *scene.Store, exec *batch.Executor, hist history.Store, logger zerolog.Logger) *Server {
	s := &Server{
		logger: logger,
		doc:    doc,
		exec:   exec,
		hist:   hist,
		hub:    NewHub(logger),
	}
	exec.OnCommit = func(created []string) {
		s.hub.Broadcast(Message{Type: "document-changed", Created: created})
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	api := router.Group("/api/v1")
	{
		api.POST("/batch", s.runBatch)
		api.GET("/tree", s.getTree)
		api.GET("/node/:id", s.getNode)
		api.GET("/node/:id/resolved", s.getResolved)
		api.POST("/undo", s.undo)
	}
	router.GET("/ws", s.serveWS)

	s.router = router
	return s
}

// Router returns the underlying gin engine, used by tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts serving on addr.
func (s *Server) Run(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("Serving document API")
	return s.router.Run(addr)
}

// runBatch executes one script transactionally against the document.
// Rollbacks are not HTTP errors: the structured result carries them.
func (s *Server) runBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error().Err(err).Msg("Failed to parse batch request")
		c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
		return
	}

	s.mu.Lock()
	result := s.exec.Run(s.doc, req.Script)
	s.mu.Unlock()

	c.JSON(http.StatusOK, result)
}

// getTree returns the nested views of all root nodes.
func (s *Server) getTree(c *gin.Context) {
	depth := queryDepth(c, -1)
	s.mu.Lock()
	defer s.mu.Unlock()
	roots := make([]any, 0, len(s.doc.Roots))
	for _, id := range s.doc.Roots {
		if v := s.doc.View(id, depth); v != nil {
			roots = append(roots, v)
		}
	}
	c.JSON(http.StatusOK, gin.H{"roots": roots})
}

// getNode returns the depth-limited view of one node.
func (s *Server) getNode(c *gin.Context) {
	depth := queryDepth(c, 2)
	s.mu.Lock()
	v := s.doc.View(c.Param("id"), depth)
	s.mu.Unlock()
	if v == nil {
		c.JSON(http.StatusNotFound, APIError{Message: "node not found"})
		return
	}
	c.JSON(http.StatusOK, v)
}

// getResolved returns the effective subtree of an instance node, with
// component defaults, overrides, and slot substitutions applied.
func (s *Server) getResolved(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.doc.Get(c.Param("id"))
	if n == nil {
		c.JSON(http.StatusNotFound, APIError{Message: "node not found"})
		return
	}
	if n.Type != scene.KindRef {
		c.JSON(http.StatusBadRequest, APIError{Message: "node is not an instance"})
		return
	}
	r := instance.Resolver{
		Themes:      s.exec.Themes,
		ActiveTheme: s.exec.ActiveTheme,
		Layout:      s.exec.Layout,
	}
	t := r.Resolve(s.doc, n)
	if t == nil {
		// Dangling component: the instance renders as empty.
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, scene.TreeView(t))
}

// undo pops the most recent snapshot and swaps it in.
func (s *Server) undo(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.hist.Pop()
	if err != nil {
		c.JSON(http.StatusNotFound, APIError{Message: err.Error()})
		return
	}
	s.doc.Nodes = snap.Nodes
	s.doc.Parent = snap.Parent
	s.doc.Children = snap.Children
	s.doc.Roots = snap.Roots
	s.hub.Broadcast(Message{Type: "document-changed"})
	c.JSON(http.StatusOK, gin.H{"success": true, "remaining": s.hist.Len()})
}

// serveWS upgrades the connection and registers the client for commit
// notifications.
func (s *Server) serveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}
	s.hub.Add(conn)
}

func queryDepth(c *gin.Context, fallback int) int {
	raw := c.Query("depth")
	if raw == "" {
		return fallback
	}
	d, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return d
}
