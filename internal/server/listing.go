package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
)

type upsertListingRequest struct {
	MLSNumber  string         `json:"mls_number"`
	Status     string         `json:"status"`
	Attributes map[string]any `json:"attributes"`
}

type updateListingRequest struct {
	Status     *string        `json:"status"`
	ClosePrice *float64       `json:"close_price"`
	CloseDate  *time.Time     `json:"close_date"`
	Attributes map[string]any `json:"attributes"`
}

func (s *Server) UpsertListing(c *gin.Context) {
	var req upsertListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.listingSvc.Upsert(c.Request.Context(), listingdomain.UpsertRequest{
		MLSNumber:  strings.TrimSpace(req.MLSNumber),
		Status:     strings.TrimSpace(req.Status),
		Attributes: req.Attributes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SearchListings(c *gin.Context) {
	var req listingdomain.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, pageInfo, err := s.listingSvc.Search(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "page_info": pageInfo})
}

func (s *Server) GetListingByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.listingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateListing(c *gin.Context) {
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.listingSvc.Update(c.Request.Context(), listingdomain.UpdateRequest{
		ID:         strings.TrimSpace(c.Param("id")),
		Status:     req.Status,
		ClosePrice: req.ClosePrice,
		CloseDate:  req.CloseDate,
		Attributes: req.Attributes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteListing(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.listingSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
