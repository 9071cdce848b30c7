package cloudevents

// CloudEvents extension attribute names for production context. The same
// names are used as ce-* message headers on the wire.
const (
	ExtCorrelationID = "prodcorrelationid"
	ExtUnitID        = "produnitid"
	ExtOrderID       = "prodorderid"
	ExtProductType   = "prodproducttype"
)

// WithUnit sets unit context extensions and returns the event
func (e *ProductionCloudEvent) WithUnit(unitID, orderID, productType string) *ProductionCloudEvent {
	e.UnitID = unitID
	e.OrderID = orderID
	e.ProductType = productType
	return e
}

// WithCorrelation sets the correlation identifier and returns the event
func (e *ProductionCloudEvent) WithCorrelation(correlationID string) *ProductionCloudEvent {
	e.CorrelationID = correlationID
	return e
}
