package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	contactdomain "github.com/smallbiznis/stockbook/internal/contact/domain"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
)

type createContactRequest struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Role    string  `json:"role"`
}

func (s *Server) CreateContact(c *gin.Context) {
	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.Create(c.Request.Context(), contactdomain.CreateRequest{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   req.Email,
		Address: req.Address,
		Role:    strings.TrimSpace(req.Role),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListContacts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Search string `form:"search"`
		Role   string `form:"role"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items, pageInfo, err := s.contactSvc.List(c.Request.Context(), contactdomain.ListRequest{
		Search: strings.TrimSpace(query.Search),
		Role:   strings.TrimSpace(query.Role),
		Page:   query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "pagination": pageInfo})
}

func (s *Server) GetContactByID(c *gin.Context) {
	resp, err := s.contactSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateContactRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

func (s *Server) UpdateContact(c *gin.Context) {
	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.Update(c.Request.Context(), contactdomain.UpdateRequest{
		ID:      strings.TrimSpace(c.Param("id")),
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteContact(c *gin.Context) {
	if err := s.contactSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func isContactValidationError(err error) bool {
	switch err {
	case contactdomain.ErrInvalidBusiness,
		contactdomain.ErrInvalidName,
		contactdomain.ErrInvalidPhone,
		contactdomain.ErrInvalidRole,
		contactdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
