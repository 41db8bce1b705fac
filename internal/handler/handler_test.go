package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"storefront/config"
	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/payment"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(allowClientCart bool) *gin.Engine {
	stub := payment.NewStubProvider()
	stub.Register(payment.Transaction{Reference: "tx_nometa", Status: "success", Amount: 300000, Metadata: json.RawMessage(`{}`)})
	cat := catalog.New(catalog.DefaultItems)
	svc := service.NewVerificationService(config.VerificationConfig{AllowClientCart: allowClientCart}, stub, cat, nil, nil, nil, nil)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	h := NewVerifyHandler(svc)
	r.POST("/verify", h.Verify)
	r.OPTIONS("/verify", h.Preflight)
	r.GET("/catalog", NewCatalogHandler(cat).List)
	r.NoMethod(MethodNotAllowed(r.Routes()))
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerify_ClientCartFallback(t *testing.T) {
	body := `{"reference":"tx_nometa","cart":[{"id":"marriage-honorable","price":"1500","qty":2}]}`

	w := post(newEngine(true), body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","files":["https://drive.google.com/uc?export=download&id=1TerxB66O3f1zk4FrWSMyUJ2zIArkMQoF"],"usedFallback":true}`, w.Body.String())

	w = post(newEngine(false), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"failed","reason":"amount_mismatch","message":"Amount mismatch","expected":0,"received":300000}`, w.Body.String())
}

func TestVerify_InvalidBody(t *testing.T) {
	w := post(newEngine(true), `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"failed","reason":"missing_reference","message":"Invalid request body"}`, w.Body.String())
}

func TestMethodNotAllowed_AllowListsRouteMethods(t *testing.T) {
	r := newEngine(true)
	tests := []struct {
		method, path, allow string
	}{
		{http.MethodGet, "/verify", "OPTIONS, POST"},
		{http.MethodDelete, "/verify", "OPTIONS, POST"},
		{http.MethodPost, "/catalog", "GET"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, tt.allow, w.Header().Get("Allow"))
			assert.JSONEq(t, `{"status":"failed","reason":"method_not_allowed","message":"Method not allowed"}`, w.Body.String())
		})
	}
}

func TestCatalogList(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":["marriage-honorable"]}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "drive.google.com")
}
