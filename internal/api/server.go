package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"

	"github.com/svanoort/script-security-plugin/internal/logger"
	"github.com/svanoort/script-security-plugin/internal/metrics"
	"github.com/svanoort/script-security-plugin/internal/security"
	"github.com/svanoort/script-security-plugin/internal/signature"
	"github.com/svanoort/script-security-plugin/internal/telemetry"
	"github.com/svanoort/script-security-plugin/internal/whitelist"
)

var log = logger.New("api")

// Server handles HTTP requests for catalog management and the denial log.
type Server struct {
	engine      *whitelist.Engine
	interceptor *security.Interceptor
	storage     *telemetry.Storage // nil when telemetry is disabled
	router      *gin.Engine
}

// NewServer creates the management API server. storage may be nil.
func NewServer(engine *whitelist.Engine, interceptor *security.Interceptor, storage *telemetry.Storage, enableMetrics bool) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())
	router.Use(BodySizeLimitMiddleware(MaxBodySize))

	s := &Server{
		engine:      engine,
		interceptor: interceptor,
		storage:     storage,
		router:      router,
	}

	s.registerRoutes(enableMetrics)
	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes(enableMetrics bool) {
	s.router.GET("/health", s.handleHealth)

	if enableMetrics {
		s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	apiGroup := s.router.Group("/api/scriptsec")
	{
		apiGroup.GET("/status", s.handleStatus)
		apiGroup.GET("/stats", s.handleStats)
		apiGroup.GET("/signatures", s.handleSignatures)
		apiGroup.GET("/files", s.handleFiles)
		apiGroup.POST("/check", s.handleCheck)
		apiGroup.POST("/reload", s.handleReload)
		apiGroup.POST("/enforce", s.handleEnforce)
		apiGroup.GET("/denials", s.handleDenials)
		apiGroup.GET("/denials/top", s.handleTopDenied)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	Success(c, gin.H{"status": "ok"})
}

// handleStatus handles GET /api/scriptsec/status.
func (s *Server) handleStatus(c *gin.Context) {
	Success(c, gin.H{
		"enforcing": s.interceptor.IsEnforcing(),
		"entries":   s.engine.Count(),
		"telemetry": s.storage != nil,
	})
}

// handleStats handles GET /api/scriptsec/stats: entry and hit totals per
// kind, plus the most denied signatures when telemetry is on.
func (s *Server) handleStats(c *gin.Context) {
	entries := s.engine.Entries()
	byKind := make(map[string]int)
	var hits int64
	for _, e := range entries {
		byKind[e.Kind]++
		hits += e.Hits
	}

	stats := gin.H{
		"entries":         len(entries),
		"entries_by_kind": byKind,
		"total_hits":      hits,
	}
	if s.storage != nil {
		if top, err := s.storage.TopDenied(10); err == nil {
			stats["top_denied"] = top
		}
	}
	Success(c, stats)
}

// SignaturesQuery represents query parameters for the signatures endpoint.
type SignaturesQuery struct {
	// Filter is a glob matched against the full canonical line,
	// e.g. "method std.String *". Display-side only; enforcement
	// matching never globs beyond the member-name wildcard.
	Filter string `form:"filter"`
	Kind   string `form:"kind"`
}

// handleSignatures handles GET /api/scriptsec/signatures.
func (s *Server) handleSignatures(c *gin.Context) {
	var query SignaturesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var g glob.Glob
	if query.Filter != "" {
		var err error
		g, err = glob.Compile(query.Filter)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid filter: "+err.Error())
			return
		}
	}

	entries := s.engine.Entries()
	out := make([]whitelist.Entry, 0, len(entries))
	for _, e := range entries {
		if query.Kind != "" && e.Kind != query.Kind {
			continue
		}
		if g != nil && !g.Match(e.Text) {
			continue
		}
		out = append(out, e)
	}

	Success(c, gin.H{"count": len(out), "signatures": out})
}

// handleFiles handles GET /api/scriptsec/files.
func (s *Server) handleFiles(c *gin.Context) {
	files, err := s.engine.Loader().ListUserFiles()
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to list catalog files")
		return
	}
	if files == nil {
		files = []string{}
	}
	Success(c, gin.H{"dir": s.engine.Loader().UserDir(), "files": files})
}

// CheckRequest is a textual permission probe: would this descriptor be
// permitted by the active whitelist?
type CheckRequest struct {
	Kind string   `json:"kind" binding:"required"`
	Type string   `json:"type" binding:"required"`
	Name string   `json:"name"`
	Args []string `json:"args"`
}

// handleCheck handles POST /api/scriptsec/check.
func (s *Server) handleCheck(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}

	kind, ok := signature.KindFromLabel(req.Kind)
	if !ok {
		Error(c, http.StatusBadRequest, "unknown kind "+strconv.Quote(req.Kind))
		return
	}
	if kind != signature.KindConstructor && req.Name == "" {
		Error(c, http.StatusBadRequest, "name is required for kind "+req.Kind)
		return
	}

	permitted := s.engine.CheckDescriptor(kind, req.Type, req.Name, req.Args)
	Success(c, gin.H{"permitted": permitted})
}

// handleReload handles POST /api/scriptsec/reload.
func (s *Server) handleReload(c *gin.Context) {
	if err := s.engine.ReloadUser(); err != nil {
		log.Error("Catalog reload failed: %v", err)
		Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	Success(c, gin.H{"entries": s.engine.Count()})
}

// EnforceRequest toggles enforcement.
type EnforceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// handleEnforce handles POST /api/scriptsec/enforce. Disabling switches to
// monitor-only mode: denials are logged and recorded but operations proceed.
func (s *Server) handleEnforce(c *gin.Context) {
	var req EnforceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	s.interceptor.SetEnforcing(*req.Enabled)
	log.Warn("Enforcement set to %v via API", *req.Enabled)
	Success(c, gin.H{"enforcing": s.interceptor.IsEnforcing()})
}

// DenialsQuery represents query parameters for denial endpoints.
type DenialsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// handleDenials handles GET /api/scriptsec/denials.
func (s *Server) handleDenials(c *gin.Context) {
	if s.storage == nil {
		Error(c, http.StatusNotFound, "Telemetry is disabled")
		return
	}
	var query DenialsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	denials, err := s.storage.RecentDenials(query.Limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to get denials")
		return
	}
	if denials == nil {
		denials = []telemetry.Denial{}
	}
	Success(c, denials)
}

// handleTopDenied handles GET /api/scriptsec/denials/top.
func (s *Server) handleTopDenied(c *gin.Context) {
	if s.storage == nil {
		Error(c, http.StatusNotFound, "Telemetry is disabled")
		return
	}
	var query DenialsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	top, err := s.storage.TopDenied(query.Limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to aggregate denials")
		return
	}
	if top == nil {
		top = []telemetry.SignatureCount{}
	}
	Success(c, top)
}
