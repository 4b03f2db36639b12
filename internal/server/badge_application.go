package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	badgeappdomain "github.com/smallbiznis/meritup/internal/badgeapp/domain"
	"github.com/smallbiznis/meritup/pkg/db/pagination"
)

type createBadgeApplicationRequest struct {
	CatalogBadgeID    string         `json:"catalog_badge_id"`
	DateOfApplication string         `json:"date_of_application,omitempty"`
	DateOfFulfillment string         `json:"date_of_fulfillment,omitempty"`
	Justification     string         `json:"justification,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

func (s *Server) CreateBadgeApplication(c *gin.Context) {
	var req createBadgeApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	applicationDate, err := parseOptionalTime(req.DateOfApplication)
	if err != nil {
		AbortWithError(c, newValidationError("date_of_application", "invalid_date_of_application", "invalid date_of_application"))
		return
	}
	fulfillmentDate, err := parseOptionalTime(req.DateOfFulfillment)
	if err != nil {
		AbortWithError(c, newValidationError("date_of_fulfillment", "invalid_date_of_fulfillment", "invalid date_of_fulfillment"))
		return
	}

	var dateOfApplication time.Time
	if applicationDate != nil {
		dateOfApplication = *applicationDate
	}

	resp, err := s.badgeAppSvc.Create(c.Request.Context(), badgeappdomain.CreateRequest{
		CatalogBadgeID:    strings.TrimSpace(req.CatalogBadgeID),
		DateOfApplication: dateOfApplication,
		DateOfFulfillment: fulfillmentDate,
		Justification:     req.Justification,
		Metadata:          req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateBadgeApplicationRequest struct {
	DateOfApplication *string `json:"date_of_application,omitempty"`
	DateOfFulfillment *string `json:"date_of_fulfillment,omitempty"`
	Justification     *string `json:"justification,omitempty"`
}

func (s *Server) UpdateBadgeApplication(c *gin.Context) {
	var req updateBadgeApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := badgeappdomain.UpdateRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		Justification: req.Justification,
	}
	if req.DateOfApplication != nil {
		parsed, err := parseOptionalTime(*req.DateOfApplication)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("date_of_application", "invalid_date_of_application", "invalid date_of_application"))
			return
		}
		update.DateOfApplication = parsed
	}
	if req.DateOfFulfillment != nil {
		parsed, err := parseOptionalTime(*req.DateOfFulfillment)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("date_of_fulfillment", "invalid_date_of_fulfillment", "invalid date_of_fulfillment"))
			return
		}
		update.DateOfFulfillment = parsed
	}

	resp, err := s.badgeAppSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBadgeApplication(c *gin.Context) {
	resp, err := s.badgeAppSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBadgeApplications(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ApplicantID string `form:"applicant_id"`
		Status      string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.badgeAppSvc.List(c.Request.Context(), badgeappdomain.ListRequest{
		ApplicantID: strings.TrimSpace(query.ApplicantID),
		Status:      strings.TrimSpace(query.Status),
		PageToken:   query.PageToken,
		PageSize:    int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitBadgeApplication(c *gin.Context) {
	resp, err := s.badgeAppSvc.Submit(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type reviewBadgeApplicationRequest struct {
	Note string `json:"note,omitempty"`
}

func (s *Server) AcceptBadgeApplication(c *gin.Context) {
	var req reviewBadgeApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.badgeAppSvc.Accept(c.Request.Context(), badgeappdomain.ReviewRequest{
		ID:   strings.TrimSpace(c.Param("id")),
		Note: req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectBadgeApplication(c *gin.Context) {
	var req reviewBadgeApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.badgeAppSvc.Reject(c.Request.Context(), badgeappdomain.ReviewRequest{
		ID:   strings.TrimSpace(c.Param("id")),
		Note: req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
