package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/smallbiznis/billfold/internal/client/domain"
	invoicedomain "github.com/smallbiznis/billfold/internal/invoice/domain"
	"github.com/smallbiznis/billfold/internal/invoice/format"
	"github.com/smallbiznis/billfold/internal/providers/pdf"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
)

type lineItemInput struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
}

type createInvoiceRequest struct {
	ClientID      string          `json:"client_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Status        string          `json:"status"`
	IssueDate     string          `json:"issue_date"`
	DueDate       string          `json:"due_date"`
	TaxRate       float64         `json:"tax_rate"`
	Notes         string          `json:"notes"`
	Items         []lineItemInput `json:"items"`
}

type updateInvoiceRequest struct {
	ClientID      *string         `json:"client_id"`
	InvoiceNumber *string         `json:"invoice_number"`
	IssueDate     *string         `json:"issue_date"`
	DueDate       *string         `json:"due_date"`
	TaxRate       *float64        `json:"tax_rate"`
	Notes         *string         `json:"notes"`
	Items         []lineItemInput `json:"items"`
}

type updateInvoiceStatusRequest struct {
	Status string `json:"status"`
}

type sendInvoiceRequest struct {
	To string `json:"to"`
}

func toLineItemInputs(items []lineItemInput) []invoicedomain.LineItemInput {
	if items == nil {
		return nil
	}
	out := make([]invoicedomain.LineItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, invoicedomain.LineItemInput{
			Description:    strings.TrimSpace(item.Description),
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return out
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issueDate, err := parseOptionalTime(req.IssueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	domainReq := invoicedomain.CreateInvoiceRequest{
		ClientID:      strings.TrimSpace(req.ClientID),
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		Status:        invoicedomain.Status(strings.TrimSpace(req.Status)),
		TaxRate:       req.TaxRate,
		Notes:         strings.TrimSpace(req.Notes),
		Items:         toLineItemInputs(req.Items),
	}
	if issueDate != nil {
		domainReq.IssueDate = *issueDate
	}
	if dueDate != nil {
		domainReq.DueDate = *dueDate
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status   string `form:"status"`
		ClientID string `form:"client_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Status:    invoicedomain.Status(strings.TrimSpace(query.Status)),
		ClientID:  strings.TrimSpace(query.ClientID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), invoicedomain.GetInvoiceRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	domainReq := invoicedomain.UpdateInvoiceRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		ClientID:      req.ClientID,
		InvoiceNumber: req.InvoiceNumber,
		TaxRate:       req.TaxRate,
		Notes:         req.Notes,
		Items:         toLineItemInputs(req.Items),
	}
	if req.IssueDate != nil {
		parsed, err := parseOptionalTime(*req.IssueDate, false)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
			return
		}
		domainReq.IssueDate = parsed
	}
	if req.DueDate != nil {
		parsed, err := parseOptionalTime(*req.DueDate, false)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
			return
		}
		domainReq.DueDate = parsed
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	err := s.invoiceSvc.Delete(c.Request.Context(), invoicedomain.DeleteInvoiceRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	var req updateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), invoicedomain.UpdateStatusRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Status: invoicedomain.Status(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// SendInvoice emails the stored invoice to the client. Premium feature; the
// email renders persisted totals and never recomputes them.
func (s *Server) SendInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.entitlementSvc.RequirePro(ctx, "invoice_email"); err != nil {
		AbortWithError(c, err)
		return
	}

	var req sendInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	invoice, err := s.invoiceSvc.GetByID(ctx, invoicedomain.GetInvoiceRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	client, err := s.clientSvc.GetByID(ctx, clientdomain.GetClientRequest{ID: invoice.ClientID.String()})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	to := strings.TrimSpace(req.To)
	if to == "" {
		to = strings.TrimSpace(client.Email)
	}
	if to == "" {
		AbortWithError(c, newValidationError("to", "invalid_recipient", "client has no email address"))
		return
	}

	userSettings, err := s.settingsSvc.Get(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	currency := userSettings.Currency
	companyName := userSettings.CompanyName
	if companyName == "" {
		companyName = userSettings.DisplayName
	}

	invoicing := s.invoicing.Get()
	subject := fmt.Sprintf("%s %s from %s", invoicing.EmailSubjectPrefix, invoice.InvoiceNumber, companyName)

	data := map[string]any{
		"subject":        subject,
		"company_name":   companyName,
		"client_name":    client.Name,
		"invoice_number": invoice.InvoiceNumber,
		"issue_date":     invoice.IssueDate.Format(dateOnlyLayout),
		"due_date":       invoice.DueDate.Format(dateOnlyLayout),
		"subtotal":       format.FormatCents(invoice.SubtotalCents, currency),
		"tax":            format.FormatCents(invoice.TaxCents, currency),
		"total":          format.FormatCents(invoice.TotalCents, currency),
		"notes":          invoice.Notes,
	}

	if err := s.emailProvider.SendTemplate(ctx, []string{to}, "invoice_send", data); err != nil {
		s.obsMetrics.RecordInvoiceEmail(ctx, "error")
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordInvoiceEmail(ctx, "sent")

	// A freshly emailed draft is now sent. Other labels are left alone.
	if invoice.Status == invoicedomain.StatusDraft {
		invoice, err = s.invoiceSvc.UpdateStatus(ctx, invoicedomain.UpdateStatusRequest{
			ID:     invoice.ID.String(),
			Status: invoicedomain.StatusSent,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

// InvoiceDocument renders the stored invoice as a PDF. Premium feature.
func (s *Server) InvoiceDocument(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.entitlementSvc.RequirePro(ctx, "document_export"); err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.GetByID(ctx, invoicedomain.GetInvoiceRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	client, err := s.clientSvc.GetByID(ctx, clientdomain.GetClientRequest{ID: invoice.ClientID.String()})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	userSettings, err := s.settingsSvc.Get(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	currency := userSettings.Currency

	items := make([]pdf.InvoiceItem, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, pdf.InvoiceItem{
			Description: item.Description,
			Qty:         format.FormatQuantity(item.Quantity),
			UnitPrice:   format.FormatCents(item.UnitPriceCents, currency),
			Amount:      format.FormatCents(item.AmountCents, currency),
		})
	}

	data := pdf.InvoiceData{
		CompanyName:    userSettings.CompanyName,
		CompanyAddress: userSettings.Address,
		FromName:       userSettings.DisplayName,
		InvoiceNumber:  invoice.InvoiceNumber,
		Status:         string(invoice.Status),
		IssueDate:      invoice.IssueDate.Format(dateOnlyLayout),
		DueDate:        invoice.DueDate.Format(dateOnlyLayout),
		BillToName:     client.Name,
		BillToEmail:    client.Email,
		Items:          items,
		Subtotal:       format.FormatCents(invoice.SubtotalCents, currency),
		Tax:            format.FormatCents(invoice.TaxCents, currency),
		Total:          format.FormatCents(invoice.TotalCents, currency),
		Notes:          invoice.Notes,
	}

	doc, err := s.pdfProvider.GenerateInvoice(ctx, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordDocumentExport(ctx)

	filename := fmt.Sprintf("invoice-%s.pdf", invoice.InvoiceNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}

func isInvoiceValidationError(err error) bool {
	switch err {
	case invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidClient,
		invoicedomain.ErrInvalidNumber,
		invoicedomain.ErrInvalidStatus,
		invoicedomain.ErrInvalidDates,
		invoicedomain.ErrInvalidItem:
		return true
	default:
		return false
	}
}
