package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	promotiondomain "github.com/smallbiznis/meritup/internal/promotion/domain"
	"github.com/smallbiznis/meritup/pkg/db/pagination"
)

type createPromotionRequest struct {
	TemplateID string `json:"template_id"`
}

func (s *Server) CreatePromotion(c *gin.Context) {
	var req createPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promotionSvc.Create(c.Request.Context(), promotiondomain.CreateRequest{
		TemplateID: strings.TrimSpace(req.TemplateID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPromotion(c *gin.Context) {
	resp, err := s.promotionSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPromotions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CreatorID string `form:"creator_id"`
		Status    string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promotionSvc.List(c.Request.Context(), promotiondomain.ListRequest{
		CreatorID: strings.TrimSpace(query.CreatorID),
		Status:    strings.TrimSpace(query.Status),
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePromotion(c *gin.Context) {
	if err := s.promotionSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

type promotionBadgesRequest struct {
	BadgeApplicationIDs []string `json:"badge_application_ids"`
}

func (s *Server) AddPromotionBadges(c *gin.Context) {
	var req promotionBadgesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.promotionSvc.AddBadges(c.Request.Context(), promotiondomain.BadgesRequest{
		PromotionID:         strings.TrimSpace(c.Param("id")),
		BadgeApplicationIDs: req.BadgeApplicationIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"added": true}})
}

func (s *Server) RemovePromotionBadges(c *gin.Context) {
	var req promotionBadgesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.promotionSvc.RemoveBadges(c.Request.Context(), promotiondomain.BadgesRequest{
		PromotionID:         strings.TrimSpace(c.Param("id")),
		BadgeApplicationIDs: req.BadgeApplicationIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"removed": true}})
}

func (s *Server) ValidatePromotion(c *gin.Context) {
	report, err := s.promotionSvc.Validate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) SubmitPromotion(c *gin.Context) {
	resp, err := s.promotionSvc.Submit(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApprovePromotion(c *gin.Context) {
	resp, err := s.promotionSvc.Approve(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type rejectPromotionRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) RejectPromotion(c *gin.Context) {
	var req rejectPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promotionSvc.Reject(c.Request.Context(), promotiondomain.RejectRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Reason: req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
