package logging

// Field names shared by every log line.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldSessionID  = "session_id"
	FieldMonth      = "month"
	FieldCategoryID = "category_id"
	FieldEvent      = "event"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentBudget    = "budget"
	ComponentLedger    = "ledger"
	ComponentSession   = "session"
	ComponentAccount   = "account"
	ComponentCatalog   = "catalog"
	ComponentDashboard = "dashboard"
	ComponentAMQP      = "amqp"
	ComponentImport    = "import"
)
