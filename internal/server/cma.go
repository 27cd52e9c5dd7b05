package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	cmadomain "github.com/openhaus/atrium/internal/cma/domain"
)

type createReportRequest struct {
	Title            string `json:"title"`
	SubjectListingID string `json:"subject_listing_id"`
}

type updateReportRequest struct {
	Title            *string `json:"title"`
	SubjectListingID *string `json:"subject_listing_id"`
}

type addComparableRequest struct {
	ListingID string `json:"listing_id"`
}

type reorderComparablesRequest struct {
	ListingIDs []string `json:"listing_ids"`
}

func (s *Server) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.cmaSvc.Create(c.Request.Context(), cmadomain.CreateRequest{
		Title:            strings.TrimSpace(req.Title),
		SubjectListingID: strings.TrimSpace(req.SubjectListingID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListReports(c *gin.Context) {
	var req cmadomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, pageInfo, err := s.cmaSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "page_info": pageInfo})
}

func (s *Server) GetReportByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.cmaSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateReport(c *gin.Context) {
	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.cmaSvc.Update(c.Request.Context(), cmadomain.UpdateRequest{
		ID:               strings.TrimSpace(c.Param("id")),
		Title:            req.Title,
		SubjectListingID: req.SubjectListingID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteReport(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.cmaSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) PublishReport(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.cmaSvc.Publish(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddComparable(c *gin.Context) {
	var req addComparableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.cmaSvc.AddComparable(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.ListingID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveComparable(c *gin.Context) {
	resp, err := s.cmaSvc.RemoveComparable(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(c.Param("listingId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReorderComparables(c *gin.Context) {
	var req reorderComparablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.cmaSvc.ReorderComparables(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.ListingIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAdjustmentConfig(c *gin.Context) {
	resp, err := s.cmaSvc.GetAdjustmentConfig(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PutAdjustmentConfig(c *gin.Context) {
	var req cmadomain.AdjustmentConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.cmaSvc.PutAdjustmentConfig(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetComputedReport(c *gin.Context) {
	resp, err := s.cmaSvc.ComputeAdjustments(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadReportPDF(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	pdf, err := s.cmaSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="cma-report-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
