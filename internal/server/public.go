package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	sellerupdatedomain "github.com/openhaus/atrium/internal/sellerupdate/domain"
)

type subscribeRequest struct {
	Email string `json:"email"`
	City  string `json:"city"`
}

func (s *Server) GetPublishedReport(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	resp, err := s.cmaSvc.GetPublished(c.Request.Context(), slug)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPublishedReportComputed(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	resp, err := s.cmaSvc.ComputePublished(c.Request.Context(), slug)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.sellerUpdateSvc.Subscribe(c.Request.Context(), sellerupdatedomain.SubscribeRequest{
		Email: strings.TrimSpace(req.Email),
		City:  strings.TrimSpace(req.City),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Unsubscribe serves the link embedded in update emails, so it is a GET
// with the token in the query string.
func (s *Server) Unsubscribe(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if err := s.sellerUpdateSvc.Unsubscribe(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}

func (s *Server) ListSubscriptions(c *gin.Context) {
	resp, err := s.sellerUpdateSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSubscription(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.sellerUpdateSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
