package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/codigix/passion-clothing-sub006/pkg/logging"
)

// CloudEvents production extension context keys
const (
	ContextKeyProdCorrelationID = "prodCorrelationId"
	ContextKeyProdUnitID        = "prodUnitId"
	ContextKeyProdOrderID       = "prodOrderId"
	ContextKeyProdProductType   = "prodProductType"
)

// CloudEvents production extension HTTP header names
const (
	HeaderProdCorrelationID = "X-Production-Correlation-ID"
	HeaderProdUnitID        = "X-Production-Unit-ID"
	HeaderProdOrderID       = "X-Production-Order-ID"
	HeaderProdProductType   = "X-Production-Product-Type"
)

// CloudEvents middleware extracts production CloudEvents extensions from HTTP
// headers and adds them to the request context for downstream logging and
// propagation.
func CloudEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderProdCorrelationID)
		unitID := c.GetHeader(HeaderProdUnitID)
		orderID := c.GetHeader(HeaderProdOrderID)
		productType := c.GetHeader(HeaderProdProductType)

		// Set in Gin context
		if correlationID != "" {
			c.Set(ContextKeyProdCorrelationID, correlationID)
		}
		if unitID != "" {
			c.Set(ContextKeyProdUnitID, unitID)
		}
		if orderID != "" {
			c.Set(ContextKeyProdOrderID, orderID)
		}
		if productType != "" {
			c.Set(ContextKeyProdProductType, productType)
		}

		// Set in Go context for the logging package
		ctx := logging.ContextWithCloudEventExtensions(
			c.Request.Context(),
			correlationID,
			unitID,
			orderID,
			productType,
		)
		c.Request = c.Request.WithContext(ctx)

		// Propagate headers in response
		if correlationID != "" {
			c.Header(HeaderProdCorrelationID, correlationID)
		}
		if unitID != "" {
			c.Header(HeaderProdUnitID, unitID)
		}
		if orderID != "" {
			c.Header(HeaderProdOrderID, orderID)
		}
		if productType != "" {
			c.Header(HeaderProdProductType, productType)
		}

		c.Next()
	}
}

// GetProdCorrelationID extracts the production correlation ID from Gin context
func GetProdCorrelationID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyProdCorrelationID); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// GetProdUnitID extracts the production unit ID from Gin context
func GetProdUnitID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyProdUnitID); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// GetProdOrderID extracts the production order ID from Gin context
func GetProdOrderID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyProdOrderID); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// GetProdProductType extracts the product type from Gin context
func GetProdProductType(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyProdProductType); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// CloudEventExtensions holds all production CloudEvent extension values
type CloudEventExtensions struct {
	CorrelationID string
	UnitID        string
	OrderID       string
	ProductType   string
}

// GetCloudEventExtensions extracts all CloudEvent extensions from Gin context
func GetCloudEventExtensions(c *gin.Context) CloudEventExtensions {
	return CloudEventExtensions{
		CorrelationID: GetProdCorrelationID(c),
		UnitID:        GetProdUnitID(c),
		OrderID:       GetProdOrderID(c),
		ProductType:   GetProdProductType(c),
	}
}

// PropagationCloudEventHeaders returns production CloudEvents headers for
// propagation to downstream services
func PropagationCloudEventHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string)

	if id := GetProdCorrelationID(c); id != "" {
		headers[HeaderProdCorrelationID] = id
	}
	if id := GetProdUnitID(c); id != "" {
		headers[HeaderProdUnitID] = id
	}
	if id := GetProdOrderID(c); id != "" {
		headers[HeaderProdOrderID] = id
	}
	if id := GetProdProductType(c); id != "" {
		headers[HeaderProdProductType] = id
	}

	return headers
}
