package logging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditLogger records the state-changing operations the engine exposes:
// plan generation and simulation. Reads are never audited.
type AuditLogger struct {
	logger *Logger
	db     *gorm.DB
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(logger *Logger, db *gorm.DB) *AuditLogger {
	return &AuditLogger{
		logger: logger,
		db:     db,
	}
}

// AuditEvent represents an audit event.
type AuditEvent struct {
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID string                 `json:"resource_id"`
	CallerID   string                 `json:"caller_id"`
	IPAddress  string                 `json:"ip_address"`
	UserAgent  string                 `json:"user_agent"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// LogGenerate records a plan generation call.
func (al *AuditLogger) LogGenerate(ctx context.Context, planID, callerID string, forceRegenerate bool) {
	event := AuditEvent{
		Action:     "generate",
		Resource:   "induction_plan",
		ResourceID: planID,
		CallerID:   callerID,
		Metadata:   map[string]interface{}{"force_regenerate": forceRegenerate},
		Timestamp:  time.Now(),
	}
	al.logEvent(ctx, &event)
}

// LogSimulate records a what-if simulation call.
func (al *AuditLogger) LogSimulate(ctx context.Context, targetTrainRef, callerID string) {
	event := AuditEvent{
		Action:     "simulate",
		Resource:   "induction_plan",
		ResourceID: targetTrainRef,
		CallerID:   callerID,
		Timestamp:  time.Now(),
	}
	al.logEvent(ctx, &event)
}

// logEvent persists the audit event to the structured logger and,
// asynchronously, to the audit_logs table.
func (al *AuditLogger) logEvent(_ context.Context, event *AuditEvent) {
	fields := map[string]interface{}{
		"action":      event.Action,
		"resource":    event.Resource,
		"resource_id": event.ResourceID,
		"caller_id":   event.CallerID,
		"ip_address":  event.IPAddress,
		"timestamp":   event.Timestamp,
	}
	if event.Metadata != nil {
		fields["metadata"] = event.Metadata
	}
	al.logger.WithFields(fields).Info("Audit event recorded")

	go func() {
		if al.db == nil {
			return
		}
		metadataJSON, _ := json.Marshal(event.Metadata)
		auditLog := map[string]interface{}{
			"caller_id":   event.CallerID,
			"action":      event.Action,
			"resource":    event.Resource,
			"resource_id": event.ResourceID,
			"ip_address":  event.IPAddress,
			"user_agent":  event.UserAgent,
			"metadata":    string(metadataJSON),
		}
		al.db.Table("audit_logs").Create(auditLog)
	}()
}

// AuditMiddleware logs POST /generate and POST /simulate calls once they
// complete successfully. GET routes are never audited.
func AuditMiddleware(auditLogger *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		resource := extractResource(c.Request.URL.Path)
		resourceID := c.Param("id")

		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}

		callerIDVal, _ := c.Get("caller_id")
		auditLogger.logger.LogAudit(
			getActionFromMethod(c.Request.Method),
			resource,
			resourceID,
			callerIDStr(callerIDVal),
			map[string]interface{}{
				"ip_address": c.ClientIP(),
				"user_agent": c.Request.UserAgent(),
			},
		)
	}
}

func extractResource(path string) string {
	parts := splitPath(path)
	for i, part := range parts {
		if part == "api" || part == "induction" {
			if i+1 < len(parts) {
				return parts[i+1]
			}
		}
	}
	return "unknown"
}

func splitPath(path string) []string {
	result := []string{}
	current := ""
	for _, char := range path {
		if char == '/' {
			if current != "" {
				result = append(result, current)
				current = ""
			}
		} else {
			current += string(char)
		}
	}
	if current != "" {
		result = append(result, current)
	}
	return result
}

func getActionFromMethod(method string) string {
	switch method {
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return "unknown"
	}
}

func callerIDStr(callerID interface{}) string {
	if callerID == nil {
		return ""
	}
	if str, ok := callerID.(string); ok {
		return str
	}
	return ""
}
