package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant_pos_backend/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// engineWithRole mounts every route behind a middleware that fakes the
// authenticated role; services are nil so only routing and role checks run.
func engineWithRole(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("/api/v1")
	group.Use(func(c *gin.Context) {
		if role != "" {
			c.Set("userRole", role)
		}
		c.Next()
	})
	Register(group, Handlers{
		Orders:    handlers.NewOrderHandler(nil),
		Items:     handlers.NewOrderItemHandler(nil),
		Payments:  handlers.NewPaymentHandler(nil),
		Movements: handlers.NewStockMovementHandler(nil),
		Staff:     handlers.NewStaffHandler(nil, nil),
		Catalog:   handlers.NewCatalogHandler(nil),
		Settings:  handlers.NewSettingHandler(nil),
	})
	return engine
}

func TestAdminOnlyRoutes(t *testing.T) {
	routes := []struct{ method, path string }{
		{http.MethodDelete, "/api/v1/orders/1"},
		{http.MethodPatch, "/api/v1/orders/1"},
		{http.MethodPost, "/api/v1/products"},
		{http.MethodPost, "/api/v1/units"},
		{http.MethodPut, "/api/v1/restaurants/1/settings"},
	}
	staff := engineWithRole("Staff")
	for _, rt := range routes {
		w := httptest.NewRecorder()
		staff.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", rt.method, rt.path)
	}
}

func TestMissingRoleIsForbidden(t *testing.T) {
	w := httptest.NewRecorder()
	engineWithRole("").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMalformedIDsAreRejectedBeforeServices(t *testing.T) {
	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/orders/x"},
		{http.MethodPost, "/api/v1/orders/x/submit"},
		{http.MethodPatch, "/api/v1/order-items/x/status"},
		{http.MethodDelete, "/api/v1/payments/0"},
		{http.MethodGet, "/api/v1/products/x/balance"},
		{http.MethodPost, "/api/v1/shifts/x/close"},
		{http.MethodDelete, "/api/v1/orders/x"},
	}
	admin := engineWithRole("Admin")
	for _, p := range paths {
		w := httptest.NewRecorder()
		admin.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", p.method, p.path)
	}
}
