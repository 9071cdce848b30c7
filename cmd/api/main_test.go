package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/codigix/passion-clothing-sub006/internal/domain"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV", "value")
	assert.Equal(t, "value", getEnv("TEST_ENV", "default"))
	assert.Equal(t, "default", getEnv("MISSING_ENV", "default"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("MONGODB_URI", "mongodb://test:27017")
	t.Setenv("MONGODB_DATABASE", "production_test")
	t.Setenv("STAGE_PLANS_PATH", "plans.yaml")

	cfg := loadConfig()

	assert.Equal(t, ":9999", cfg.ServerAddr)
	assert.Equal(t, "mongodb://test:27017", cfg.MongoDB.URI)
	assert.Equal(t, "production_test", cfg.MongoDB.Database)
	assert.Equal(t, "plans.yaml", cfg.StagePlansPath)
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unit not found", domain.ErrUnitNotFound, http.StatusNotFound},
		{"stage not found", domain.ErrStageNotFound, http.StatusNotFound},
		{"duplicate barcode", domain.ErrDuplicateBarcode, http.StatusConflict},
		{"version race", domain.ErrConcurrentModification, http.StatusConflict},
		{"terminal unit", domain.ErrUnitTerminal, http.StatusConflict},
		{"out of order stage", &domain.OutOfOrderStageError{UnitID: "u1", Requested: "packing", Expected: "sewing"}, http.StatusConflict},
		{"gate blocked", &domain.CheckpointsIncompleteError{UnitID: "u1", Stage: "sewing", Unresolved: []string{"seam_check"}}, http.StatusConflict},
		{"invalid quantity", domain.ErrInvalidQuantity, http.StatusBadRequest},
		{"invalid status", fmt.Errorf("%w: %q", domain.ErrInvalidStatus, "bogus"), http.StatusBadRequest},
		{"unknown product type", fmt.Errorf("%w: %q", domain.ErrUnknownProductType, "hat"), http.StatusBadRequest},
		{"deadline exceeded", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"cancelled", context.Canceled, http.StatusGatewayTimeout},
		{"wrapped deadline", fmt.Errorf("failed to update unit: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"opaque failure", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/units", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
