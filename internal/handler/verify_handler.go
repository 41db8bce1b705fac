package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/service"
)

type VerifyHandler struct {
	svc *service.VerificationService
}

func NewVerifyHandler(svc *service.VerificationService) *VerifyHandler {
	return &VerifyHandler{svc: svc}
}

type verifyRequest struct {
	Reference string          `json:"reference"`
	Cart      json.RawMessage `json:"cart"`
}

// Verify exchanges a Paystack reference for the download URLs of the paid cart.
// Expects JSON: { "reference": "...", "cart": [...] } where cart is an optional fallback.
func (h *VerifyHandler) Verify(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Failed(domain.ReasonMissingReference, "Invalid request body"))
		return
	}
	var req verifyRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			c.JSON(http.StatusBadRequest, models.Failed(domain.ReasonMissingReference, "Invalid request body"))
			return
		}
	}
	out := h.svc.Verify(c.Request.Context(), service.VerifyRequest{
		Reference: req.Reference,
		Cart:      req.Cart,
		RequestID: middleware.GetRequestID(c),
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	c.JSON(out.Code, out.Result)
}

// Preflight answers OPTIONS with an empty 200.
func (h *VerifyHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

// MethodNotAllowed builds the engine's NoMethod handler. The Allow header lists
// the methods registered for the requested path.
func MethodNotAllowed(routes gin.RoutesInfo) gin.HandlerFunc {
	allowed := make(map[string][]string)
	for _, rt := range routes {
		allowed[rt.Path] = append(allowed[rt.Path], rt.Method)
	}
	headers := make(map[string]string, len(allowed))
	for path, methods := range allowed {
		sort.Strings(methods)
		headers[path] = strings.Join(methods, ", ")
	}
	return func(c *gin.Context) {
		if allow, ok := headers[c.Request.URL.Path]; ok {
			c.Header("Allow", allow)
		}
		c.JSON(http.StatusMethodNotAllowed, models.Failed(domain.ReasonMethodNotAllowed, "Method not allowed"))
	}
}
