package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wa2g/denis-portal/internal/application/service"
	"github.com/wa2g/denis-portal/internal/domain/workflow"
	"github.com/wa2g/denis-portal/internal/report"
)

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type receiveRequest struct {
	Quantity int64 `json:"quantity" binding:"required"`
}

// --- orders ---

func (s *Server) listOrders(c *gin.Context) {
	records, err := s.orders.List(c.Request.Context(), currentSession(c), c.DefaultQuery("status", workflow.StatusAll))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": records, "count": len(records)})
}

func (s *Server) createOrder(c *gin.Context) {
	var draft service.OrderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := s.orders.Create(c.Request.Context(), currentSession(c), draft)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) orderStats(c *gin.Context) {
	summary, err := s.orders.Summary(c.Request.Context(), currentSession(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) transitionOrder(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := s.orders.Transition(c.Request.Context(), currentSession(c), c.Param("id"), workflow.Status(req.Status), req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) deleteOrder(c *gin.Context) {
	if err := s.orders.Delete(c.Request.Context(), currentSession(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// --- invoices ---

func (s *Server) listInvoices(c *gin.Context) {
	records, err := s.invoices.List(c.Request.Context(), currentSession(c), c.DefaultQuery("status", workflow.StatusAll))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": records, "count": len(records)})
}

func (s *Server) invoiceStats(c *gin.Context) {
	summary, err := s.invoices.Summary(c.Request.Context(), currentSession(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) transitionInvoice(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	invoice, err := s.invoices.Transition(c.Request.Context(), currentSession(c), c.Param("id"), workflow.Status(req.Status), req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// --- requests ---

func (s *Server) listRequests(c *gin.Context) {
	records, err := s.requests.List(c.Request.Context(), currentSession(c), c.DefaultQuery("status", workflow.StatusAll))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": records, "count": len(records)})
}

func (s *Server) requestStats(c *gin.Context) {
	summary, err := s.requests.Summary(c.Request.Context(), currentSession(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) transitionRequest(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	record, err := s.requests.Transition(c.Request.Context(), currentSession(c), c.Param("id"), workflow.Status(req.Status), req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) markRequestForInvoice(c *gin.Context) {
	record, err := s.requests.MarkForInvoice(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// --- stock receipts ---

func (s *Server) listStockReceipts(c *gin.Context) {
	records, err := s.stock.List(c.Request.Context(), currentSession(c), c.DefaultQuery("status", workflow.StatusAll))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock_receipts": records, "count": len(records)})
}

func (s *Server) stockStats(c *gin.Context) {
	summary, err := s.stock.Summary(c.Request.Context(), currentSession(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) receiveStock(c *gin.Context) {
	var req receiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	receipt, err := s.stock.Receive(c.Request.Context(), currentSession(c), c.Param("id"), req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (s *Server) approveStock(c *gin.Context) {
	receipt, err := s.stock.Approve(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// --- master data ---

func (s *Server) listCustomers(c *gin.Context) {
	records, err := s.masters.Customers(c.Request.Context(), currentSession(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": records, "count": len(records)})
}

func (s *Server) listLoans(c *gin.Context) {
	records, err := s.masters.Loans(c.Request.Context(), currentSession(c), c.DefaultQuery("status", workflow.StatusAll))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": records, "count": len(records)})
}

func (s *Server) listUsers(c *gin.Context) {
	records, err := s.masters.Users(c.Request.Context(), currentSession(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": records, "count": len(records)})
}

// --- audit trail ---

func (s *Server) entityHistory(c *gin.Context) {
	records, err := s.history.ListByEntity(c.Param("entityType"), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transitions": records, "count": len(records)})
}

func (s *Server) recentHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	records, err := s.history.Recent(limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transitions": records, "count": len(records)})
}

// --- reports ---

func (s *Server) downloadReport(c *gin.Context) {
	collection := c.Param("collection")
	sess := currentSession(c)
	ctx := c.Request.Context()

	var (
		workbook *report.Workbook
		err      error
	)
	switch collection {
	case "orders":
		records, lerr := s.orders.List(ctx, sess, workflow.StatusAll)
		if lerr != nil {
			s.respondError(c, lerr)
			return
		}
		workbook, err = report.Orders(records)
	case "invoices":
		records, lerr := s.invoices.List(ctx, sess, workflow.StatusAll)
		if lerr != nil {
			s.respondError(c, lerr)
			return
		}
		workbook, err = report.Invoices(records)
	case "stock-receipts":
		records, lerr := s.stock.List(ctx, sess, workflow.StatusAll)
		if lerr != nil {
			s.respondError(c, lerr)
			return
		}
		workbook, err = report.StockReceipts(records)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no report for %q", collection)})
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", collection))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
