package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/smallbiznis/stockbook/internal/report/domain"
)

func (s *Server) GetInventoryReport(c *gin.Context) {
	var query struct {
		LowStockThreshold int64  `form:"low_stock_threshold"`
		Category          string `form:"category"`
		SortBy            string `form:"sort_by"`
		OrderBy           string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.Inventory(c.Request.Context(), reportdomain.InventoryRequest{
		LowStockThreshold: query.LowStockThreshold,
		Category:          strings.TrimSpace(query.Category),
		SortBy:            strings.TrimSpace(query.SortBy),
		OrderBy:           strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTransactionReport(c *gin.Context) {
	var query struct {
		Period    string `form:"period"`
		StartDate string `form:"start_date"`
		EndDate   string `form:"end_date"`
		Kind      string `form:"kind"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseOptionalTime(query.StartDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}

	endDate, err := parseOptionalTime(query.EndDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
		return
	}

	resp, err := s.reportSvc.Transactions(c.Request.Context(), reportdomain.TransactionReportRequest{
		Period:    strings.TrimSpace(query.Period),
		StartDate: startDate,
		EndDate:   endDate,
		Kind:      strings.TrimSpace(query.Kind),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDashboard(c *gin.Context) {
	resp, err := s.reportSvc.Dashboard(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isReportValidationError(err error) bool {
	switch err {
	case reportdomain.ErrInvalidBusiness,
		reportdomain.ErrInvalidPeriod,
		reportdomain.ErrInvalidKind:
		return true
	default:
		return false
	}
}
