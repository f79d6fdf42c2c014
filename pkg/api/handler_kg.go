package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cmeth990/kgctl/pkg/kgdiff"
)

const defaultChangelogLimit = 20

// kgVersionsHandler handles GET /kg/versions?limit=N: the most recent
// changelog entries, newest first.
func (s *Server) kgVersionsHandler(c *gin.Context) {
	if s.changelog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "changelog store not configured"})
		return
	}

	limit := parseLimit(c, defaultChangelogLimit)
	latest, ok, err := s.changelog.LatestChangelogEntry(c.Request.Context())
	if err != nil {
		mapServiceError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, ChangelogListResponse{Entries: nil})
		return
	}

	floor := latest.Version - int64(limit)
	if floor < 0 {
		floor = 0
	}
	entries, err := s.changelog.ChangelogEntriesAfter(c.Request.Context(), floor)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	c.JSON(http.StatusOK, ChangelogListResponse{Entries: entries})
}

// kgVersionHandler handles GET /kg/versions/{v}: a single changelog entry.
func (s *Server) kgVersionHandler(c *gin.Context) {
	if s.changelog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "changelog store not configured"})
		return
	}

	v, err := strconv.ParseInt(c.Param("v"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version"})
		return
	}

	entries, err := s.changelog.ChangelogEntriesAfter(c.Request.Context(), v-1)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	for _, e := range entries {
		if e.Version == v {
			c.JSON(http.StatusOK, e)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "version not found"})
}

// kgRollbackHandler handles POST /kg/rollback/{v}: synthesizes and applies
// the reverse diff undoing every changelog entry after v.
func (s *Server) kgRollbackHandler(c *gin.Context) {
	if s.changelog == nil || s.graphStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "kg store not configured"})
		return
	}

	v, err := strconv.ParseInt(c.Param("v"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version"})
		return
	}

	entry, err := kgdiff.RollbackTo(c.Request.Context(), s.graphStore, s.changelog, v)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
