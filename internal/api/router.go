// Package api exposes the frame submission API, animation lifecycle, and
// metrics over HTTP: a gin router with the strip-scoped routes in one
// route group, JSON bodies bound with ShouldBindJSON, errors returned as
// {"error": "..."}.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ledcore/internal/animation"
	"ledcore/internal/frame"
	"ledcore/internal/manager"
	"ledcore/internal/zone"
)

// Server wires the Frame Manager and animation runners to HTTP handlers.
type Server struct {
	mgr      *manager.Manager
	zoneMaps map[string]*zone.Map
	runners  *animation.Runners
}

// NewServer builds a Server. zoneMaps must contain one entry per strip
// registered with mgr, keyed by the same strip id.
func NewServer(mgr *manager.Manager, zoneMaps map[string]*zone.Map, runners *animation.Runners) *Server {
	return &Server{mgr: mgr, zoneMaps: zoneMaps, runners: runners}
}

// frameRequest is the wire shape for the three canonical frame submission
// forms: single-zone color, multi-zone colors, and per-pixel. Exactly
// one of Zone/Zones/Pixels should be populated; Zone takes precedence,
// then Zones, then Pixels.
type frameRequest struct {
	Priority string `json:"priority" binding:"required"`
	Source   string `json:"source" binding:"required"`
	TTLMs    int64  `json:"ttl_ms"`

	Zone  string `json:"zone"`
	Color string `json:"color"`

	Zones map[string]string `json:"zones"`

	Pixels map[string][]string `json:"pixels"`
}

func (s *Server) toUpdates(req frameRequest) (map[zone.ID]frame.Update, error) {
	updates := make(map[zone.ID]frame.Update)

	if req.Zone != "" {
		c, err := parseHexColor(req.Color)
		if err != nil {
			return nil, err
		}
		updates[zone.ID(req.Zone)] = frame.SolidUpdate(c)
		return updates, nil
	}
	if len(req.Zones) > 0 {
		for z, hex := range req.Zones {
			c, err := parseHexColor(hex)
			if err != nil {
				return nil, err
			}
			updates[zone.ID(z)] = frame.SolidUpdate(c)
		}
		return updates, nil
	}
	for z, hexes := range req.Pixels {
		colors, err := parseHexColors(hexes)
		if err != nil {
			return nil, err
		}
		updates[zone.ID(z)] = frame.PerPixelUpdate(colors)
	}
	return updates, nil
}

// setupRouter builds the gin engine: one route group for the strip-scoped
// resources (frames, zones, animations) plus a standalone metrics route.
func setupRouter(s *Server) *gin.Engine {
	r := gin.Default()

	strips := r.Group("/api/strips/:stripID")
	{
		strips.POST("/frames", s.handleSubmitFrame)
		strips.GET("/zones", s.handleZones)
		strips.POST("/animations/:zoneID", s.handleStartAnimation)
		strips.DELETE("/animations/:zoneID", s.handleStopAnimation)
	}

	r.GET("/api/metrics", s.handleMetrics)

	return r
}

// NewRouter is the exported entry point cmd/ledcored uses.
func NewRouter(mgr *manager.Manager, zoneMaps map[string]*zone.Map, runners *animation.Runners) *gin.Engine {
	return setupRouter(NewServer(mgr, zoneMaps, runners))
}

func (s *Server) handleSubmitFrame(c *gin.Context) {
	stripID := c.Param("stripID")
	zm, ok := s.zoneMaps[stripID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown strip"})
		return
	}

	var req frameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prio, err := parsePriority(req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates, err := s.toUpdates(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := frame.New(prio, parseSource(req.Source), time.Duration(req.TTLMs)*time.Millisecond, updates, zm, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.mgr.Submit(c.Request.Context(), stripID, f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "submitted"})
}

func (s *Server) handleZones(c *gin.Context) {
	stripID := c.Param("stripID")
	snapshot, ok := s.mgr.RenderState(stripID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown strip"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

type animationRequest struct {
	Code     string `json:"code" binding:"required"`
	Priority string `json:"priority" binding:"required"`
	Source   string `json:"source" binding:"required"`
	TTLMs    int64  `json:"ttl_ms"`
}

func (s *Server) handleStartAnimation(c *gin.Context) {
	stripID := c.Param("stripID")
	zoneID := zone.ID(c.Param("zoneID"))
	zm, ok := s.zoneMaps[stripID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown strip"})
		return
	}

	var req animationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prio, err := parsePriority(req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	anim, err := animation.NewLuaAnimation(req.Code, zoneID, zm, prio, parseSource(req.Source), time.Duration(req.TTLMs)*time.Millisecond)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.runners.Start(stripID, zoneID, anim)
	c.JSON(http.StatusCreated, gin.H{"status": "started", "zone": zoneID})
}

func (s *Server) handleStopAnimation(c *gin.Context) {
	zoneID := zone.ID(c.Param("zoneID"))
	s.runners.Stop(zoneID)
	c.JSON(http.StatusOK, gin.H{"status": "stopped", "zone": zoneID})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.mgr.Metrics())
}
