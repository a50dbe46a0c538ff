package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorKind     = "error_kind"
	FieldOperation     = "operation"
	FieldBillID        = "bill_id"
	FieldBillTitle     = "bill_title"
	FieldBillTypeID    = "bill_type_id"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldPeriod        = "period"
	FieldFileID        = "file_id"
	FieldFileName      = "file_name"
	FieldFileSize      = "file_size"
	FieldKey           = "key"
	FieldRevision      = "revision"
	FieldDriveFileID   = "drive_file_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBills     = "bills"
	ComponentStore     = "store"
	ComponentStorage   = "storage"
	ComponentBlob      = "blob"
	ComponentBackup    = "backup"
	ComponentDrive     = "drive"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpDuplicate = "duplicate"
	OpAttach    = "attach"
	OpDetach    = "detach"
	OpExport    = "export"
	OpImport    = "import"
	OpUpload    = "upload"
	OpDownload  = "download"
	OpClear     = "clear"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithBill adds bill-related fields
func (f LogFields) WithBill(id, title, billTypeID, amount, currency, period string) LogFields {
	f[FieldBillID] = id
	f[FieldBillTitle] = title
	f[FieldBillTypeID] = billTypeID
	f[FieldAmount] = amount
	f[FieldCurrency] = currency
	if period != "" {
		f[FieldPeriod] = period
	}
	return f
}

// WithFile adds attachment fields
func (f LogFields) WithFile(id, name string, size int64) LogFields {
	f[FieldFileID] = id
	f[FieldFileName] = name
	f[FieldFileSize] = size
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
