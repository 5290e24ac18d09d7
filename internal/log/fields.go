package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldError        = "error"
	FieldRunID        = "run_id"
	FieldSource       = "source"
	FieldPage         = "page"
	FieldStatusCode   = "status_code"
	FieldTransactions = "transactions"
	FieldTotalCount   = "total_count"
	FieldDays         = "days"
	FieldCategories   = "categories"
	FieldTotalCents   = "total_cents"
	FieldDuration     = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentSource = "source"
	ComponentWorker = "worker"
)
