package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	settingsdomain "github.com/smallbiznis/billfold/internal/settings/domain"
)

type updateSettingsRequest struct {
	DisplayName *string `json:"display_name"`
	CompanyName *string `json:"company_name"`
	Address     *string `json:"address"`
	Currency    *string `json:"currency"`
}

func (s *Server) GetSettings(c *gin.Context) {
	resp, err := s.settingsSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingsSvc.Update(c.Request.Context(), settingsdomain.UpdateSettingsRequest{
		DisplayName: req.DisplayName,
		CompanyName: req.CompanyName,
		Address:     req.Address,
		Currency:    req.Currency,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isSettingsValidationError(err error) bool {
	switch err {
	case settingsdomain.ErrInvalidCurrency:
		return true
	default:
		return false
	}
}
