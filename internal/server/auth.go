package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/stockbook/internal/auth/domain"
)

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"business_name"`
}

func (s *Server) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.authSvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		Password:     req.Password,
		BusinessName: strings.TrimSpace(req.BusinessName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.authSvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Login:    strings.TrimSpace(req.Login),
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Logout only acknowledges; tokens are stateless and expire on their own.
func (s *Server) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "logged out"}})
}

func (s *Server) GetProfile(c *gin.Context) {
	resp, err := s.authSvc.Profile(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isAuthValidationError(err error) bool {
	switch err {
	case authdomain.ErrInvalidUsername,
		authdomain.ErrInvalidEmail,
		authdomain.ErrInvalidPassword,
		authdomain.ErrInvalidBusinessName:
		return true
	default:
		return false
	}
}
