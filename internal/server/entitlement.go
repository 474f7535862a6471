package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type entitlementResponse struct {
	Tier       string `json:"tier"`
	IsPro      bool   `json:"is_pro"`
	UpgradeURL string `json:"upgrade_url,omitempty"`
}

// GetEntitlement reports the caller's resolved access. Free users also get
// the checkout link so the client can offer an upgrade.
func (s *Server) GetEntitlement(c *gin.Context) {
	access, err := s.entitlementSvc.AccessForUser(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := entitlementResponse{
		Tier:  string(access.Tier),
		IsPro: access.IsPro,
	}
	if !access.IsPro {
		resp.UpgradeURL = s.invoicing.Get().UpgradeCheckoutURL
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
