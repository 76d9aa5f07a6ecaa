package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	txdomain "github.com/smallbiznis/stockbook/internal/transaction/domain"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
)

type lineItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createTransactionRequest struct {
	Kind       string            `json:"kind"`
	CustomerID *string           `json:"customer_id"`
	VendorID   *string           `json:"vendor_id"`
	LineItems  []lineItemRequest `json:"line_items"`
	OccurredAt *time.Time        `json:"occurred_at"`
}

func (s *Server) CreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lines := make([]txdomain.LineItemRequest, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lines = append(lines, txdomain.LineItemRequest{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	resp, err := s.txnSvc.Create(c.Request.Context(), txdomain.CreateRequest{
		Kind:       strings.TrimSpace(req.Kind),
		CustomerID: req.CustomerID,
		VendorID:   req.VendorID,
		LineItems:  lines,
		OccurredAt: req.OccurredAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTransactions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Kind      string `form:"kind"`
		StartDate string `form:"start_date"`
		EndDate   string `form:"end_date"`
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

	items, pageInfo, err := s.txnSvc.List(c.Request.Context(), txdomain.ListRequest{
		Kind:      strings.TrimSpace(query.Kind),
		StartDate: startDate,
		EndDate:   endDate,
		Page:      query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "pagination": pageInfo})
}

func (s *Server) GetTransactionByID(c *gin.Context) {
	resp, err := s.txnSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTransactionsByContact(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.txnSvc.ListByContact(c.Request.Context(), strings.TrimSpace(c.Param("contactId")), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isTransactionValidationError(err error) bool {
	switch err {
	case txdomain.ErrInvalidBusiness,
		txdomain.ErrInvalidKind,
		txdomain.ErrMissingCustomer,
		txdomain.ErrMissingVendor,
		txdomain.ErrContactMismatch,
		txdomain.ErrEmptyLineItems,
		txdomain.ErrInvalidQuantity,
		txdomain.ErrInvalidUnitPrice,
		txdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
