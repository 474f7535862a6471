package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	recurringdomain "github.com/smallbiznis/billfold/internal/recurring/domain"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
)

type createRecurringRequest struct {
	ClientID       string          `json:"client_id"`
	TemplateNumber string          `json:"template_number"`
	Frequency      string          `json:"frequency"`
	NextDueDate    string          `json:"next_due_date"`
	TaxRate        float64         `json:"tax_rate"`
	Notes          string          `json:"notes"`
	Items          []lineItemInput `json:"items"`
}

type updateRecurringRequest struct {
	ClientID       *string         `json:"client_id"`
	TemplateNumber *string         `json:"template_number"`
	Frequency      *string         `json:"frequency"`
	NextDueDate    *string         `json:"next_due_date"`
	IsActive       *bool           `json:"is_active"`
	TaxRate        *float64        `json:"tax_rate"`
	Notes          *string         `json:"notes"`
	Items          []lineItemInput `json:"items"`
}

func (s *Server) CreateRecurring(c *gin.Context) {
	var req createRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	nextDue, err := parseOptionalTime(req.NextDueDate, false)
	if err != nil || nextDue == nil {
		AbortWithError(c, newValidationError("next_due_date", "invalid_next_due_date", "invalid next_due_date"))
		return
	}

	resp, err := s.recurringSvc.Create(c.Request.Context(), recurringdomain.CreateTemplateRequest{
		ClientID:       strings.TrimSpace(req.ClientID),
		TemplateNumber: strings.TrimSpace(req.TemplateNumber),
		Frequency:      recurringdomain.Frequency(strings.TrimSpace(req.Frequency)),
		NextDueDate:    *nextDue,
		TaxRate:        req.TaxRate,
		Notes:          strings.TrimSpace(req.Notes),
		Items:          toLineItemInputs(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRecurring(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Active string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.recurringSvc.List(c.Request.Context(), recurringdomain.ListTemplateRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Active:    active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRecurringByID(c *gin.Context) {
	resp, err := s.recurringSvc.GetByID(c.Request.Context(), recurringdomain.GetTemplateRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRecurring(c *gin.Context) {
	var req updateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	domainReq := recurringdomain.UpdateTemplateRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		ClientID:       req.ClientID,
		TemplateNumber: req.TemplateNumber,
		IsActive:       req.IsActive,
		TaxRate:        req.TaxRate,
		Notes:          req.Notes,
		Items:          toLineItemInputs(req.Items),
	}
	if req.Frequency != nil {
		freq := recurringdomain.Frequency(strings.TrimSpace(*req.Frequency))
		domainReq.Frequency = &freq
	}
	if req.NextDueDate != nil {
		parsed, err := parseOptionalTime(*req.NextDueDate, false)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("next_due_date", "invalid_next_due_date", "invalid next_due_date"))
			return
		}
		domainReq.NextDueDate = parsed
	}

	resp, err := s.recurringSvc.Update(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRecurring(c *gin.Context) {
	err := s.recurringSvc.Delete(c.Request.Context(), recurringdomain.DeleteTemplateRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunRecurring materializes every due template across all tenants. Called by
// an external cron through the admin group.
func (s *Server) RunRecurring(c *gin.Context) {
	result, err := s.recurringSvc.Materialize(c.Request.Context(), s.clk.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func isRecurringValidationError(err error) bool {
	switch err {
	case recurringdomain.ErrInvalidID,
		recurringdomain.ErrInvalidClient,
		recurringdomain.ErrInvalidFrequency,
		recurringdomain.ErrInvalidDueDate,
		recurringdomain.ErrInvalidItem:
		return true
	default:
		return false
	}
}
