package cloudevents

import (
	"time"
)

// EventType constants for production lifecycle events
const (
	// Unit events
	UnitCreated      = "production.unit.created"
	UnitTransitioned = "production.unit.transitioned"
	UnitLate         = "production.unit.late"
	UnitFrozen       = "production.unit.frozen"
	UnitTerminal     = "production.unit.terminal"

	// Stage events
	StageStarted   = "production.stage.started"
	StageCompleted = "production.stage.completed"

	// Quality and material events
	ReworkRecorded       = "production.rework.recorded"
	MaterialOverConsumed = "production.material.overconsumed"
)

// Source constants for event sources
const (
	SourceLifecycle = "/production/lifecycle-service"
	SourceRelay     = "/production/outbox-relay"
)

// ProductionCloudEvent represents a CloudEvents v1.0 compliant event for the
// production lifecycle platform
type ProductionCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// Production-specific extensions
	CorrelationID string `json:"prodcorrelationid,omitempty"`
	UnitID        string `json:"produnitid,omitempty"`
	OrderID       string `json:"prodorderid,omitempty"`
	ProductType   string `json:"prodproducttype,omitempty"`

	// W3C Trace Context propagation
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}
