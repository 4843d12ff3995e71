// Package server exposes the overlap engine over HTTP. The endpoint
// mirrors the desktop workflow: the client posts each source's CSV text
// keyed by source name, and receives the cleaned per-source tables plus
// the combined overlaps table as JSON records.
package server

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/stephansanders/citation-overlap/internal/extract"
	"github.com/stephansanders/citation-overlap/internal/overlap"
	"github.com/stephansanders/citation-overlap/internal/tabular"
	"github.com/stephansanders/citation-overlap/internal/types"
)

// Server wires the HTTP surface to a per-request overlap Detector.
type Server struct {
	cfg overlap.Config
}

// New creates a server that resolves requests with the given engine
// configuration.
func New(cfg overlap.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Server{cfg: cfg}, nil
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.GET("/", s.greet)
	router.POST("/", s.findOverlaps)
	return router
}

func (s *Server) greet(c *gin.Context) {
	c.String(http.StatusOK, "Hello my friend!")
}

// findOverlaps accepts a JSON object mapping source names to raw CSV
// text, e.g. {"medline": "...", "embase": "..."}. Source names select
// built-in schemas and are processed in sorted order so the run is
// reproducible regardless of JSON key order.
func (s *Server) findOverlaps(c *gin.Context) {
	var payload map[string]string
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must map source names to CSV text"})
		return
	}
	if len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no sources in request"})
		return
	}

	names := make([]string, 0, len(payload))
	for name := range payload {
		names = append(names, name)
	}
	sort.Strings(names)

	det, err := overlap.New(s.cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{}
	for _, name := range names {
		schema, err := extract.LoadDefault(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		table, err := readCSVText(payload[name])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source " + name + ": " + err.Error()})
			return
		}
		records, err := extract.New(schema).Extract(table)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source " + name + ": " + err.Error()})
			return
		}
		if err := det.Ingest(schema.Source, records); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source " + name + ": " + err.Error()})
			return
		}
		clean, err := det.CleanTable(schema.Source, table.Columns)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response[name] = clean.Records()
	}

	result, err := det.Resolve()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response["overlaps"] = result.Table.Records()
	response["stats"] = result.Stats

	c.JSON(http.StatusOK, response)
}

// readCSVText parses posted CSV text into a table without touching the
// filesystem.
func readCSVText(text string) (*types.Table, error) {
	return tabular.ReadString(text, ',')
}
