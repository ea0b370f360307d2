package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldTaskID is the crawler task ID
	FieldTaskID = "task_id"

	// FieldArticleID is the article row ID
	FieldArticleID = "article_id"

	// FieldSource is the crawl source key
	FieldSource = "source"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields, attached at the log call site.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldPage is the list-page number being crawled
	FieldPage = "page"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
