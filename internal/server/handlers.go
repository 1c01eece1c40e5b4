package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/backmassage/magickbatch/internal/history"
	"github.com/backmassage/magickbatch/internal/pipeline"
	"github.com/backmassage/magickbatch/internal/planner"
)

// RunRequest is the POST /api/runs body. Every field is optional and
// falls back to the server's configuration. Numbers are clamped, never
// rejected.
type RunRequest struct {
	InputDir   string `json:"input_dir"`
	OutputDir  string `json:"output_dir"`
	Mode       string `json:"mode"`
	MaxEdge    *int   `json:"max_edge"`
	CropWidth  *int   `json:"crop_width"`
	CropHeight *int   `json:"crop_height"`
	Gravity    string `json:"gravity"`
	Quality    *int   `json:"quality"`
	Format     string `json:"format"`
	Verify     *bool  `json:"verify"`
}

// RunResponse wraps the finished run.
type RunResponse struct {
	Completed bool            `json:"completed"`
	Errors    int             `json:"errors"`
	Lines     []string        `json:"lines"`
	Report    pipeline.Report `json:"report"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"running": s.Runs.Current() != nil,
		"history": s.History != nil,
	})
}

func (s *Server) listFiles(c *gin.Context) {
	var dir string
	switch c.DefaultQuery("dir", "input") {
	case "input":
		dir = s.Defaults.InputDir
	case "output":
		dir = s.Defaults.OutputDir
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "dir must be 'input' or 'output'"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dir": dir, "files": pipeline.Inventory(dir, s.Dims)})
}

func (s *Server) startRun(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}
	}
	rc, err := s.runContext(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log, err := s.Runs.TryRun(c.Request.Context(), rc)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, RunResponse{
		Completed: log.Completed(),
		Errors:    len(log.Errors()),
		Lines:     log.Lines(),
		Report:    log.Report(),
	})
}

func (s *Server) currentRun(c *gin.Context) {
	log := s.Runs.Current()
	if log == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run in progress"})
		return
	}
	c.JSON(http.StatusOK, log.Report())
}

func (s *Server) listRuns(c *gin.Context) {
	if s.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled (start with --history <dir>)"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative number"})
			return
		}
		limit = n
	}
	records, err := s.History.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": records})
}

func (s *Server) getRun(c *gin.Context) {
	if s.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled (start with --history <dir>)"})
		return
	}
	rec, err := s.History.Get(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// runContext merges req over the server defaults and clamps the result the
// same way the CLI does.
func (s *Server) runContext(req RunRequest) (*pipeline.RunContext, error) {
	cfg := s.Defaults
	if req.InputDir != "" {
		cfg.InputDir = req.InputDir
	}
	if req.OutputDir != "" {
		cfg.OutputDir = req.OutputDir
	}
	if req.Mode != "" {
		cfg.Mode = planner.ModeKind(strings.ToLower(req.Mode))
	}
	if req.Gravity != "" {
		cfg.Gravity = planner.Gravity(req.Gravity)
	}
	if req.Format != "" {
		cfg.Format = planner.Selection(req.Format)
	}
	setInt(&cfg.MaxEdge, req.MaxEdge)
	setInt(&cfg.CropWidth, req.CropWidth)
	setInt(&cfg.CropHeight, req.CropHeight)
	setInt(&cfg.Quality, req.Quality)
	if req.Verify != nil {
		cfg.Verify = *req.Verify
	}

	// Only request fields can be invalid; the rest were validated at startup.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Normalize()

	rc := pipeline.NewRunContext(pipeline.Params{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		Mode:      cfg.ResizeMode(),
		Quality:   cfg.Quality,
		Selection: cfg.Format,
	})
	rc.Backend = s.Backend
	rc.Verify = cfg.Verify
	rc.Sink = s.Sink
	return rc, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
