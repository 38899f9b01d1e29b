package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func parseAccountID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		return 0, errors.New("invalid account id")
	}
	return id, nil
}

// TrackUsage runs one on-demand tracking pass for the account and
// returns the pass report.
func (s *Server) TrackUsage(c *gin.Context) {
	accountID, err := parseAccountID(c)
	if err != nil {
		AbortBadRequest(c, err)
		return
	}

	report, err := s.tracker.TrackAllActiveResources(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) UsageSummary(c *gin.Context) {
	accountID, err := parseAccountID(c)
	if err != nil {
		AbortBadRequest(c, err)
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		AbortBadRequest(c, errors.New("invalid start, expected RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		AbortBadRequest(c, errors.New("invalid end, expected RFC3339"))
		return
	}

	summary, err := s.tracker.GenerateUsageSummary(c.Request.Context(), accountID, start, end)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
