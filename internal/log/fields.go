package log

import "time"

// Field names shared by every component so records can be queried uniformly.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status_code"
	FieldDurationMs = "duration_ms"
	FieldClientIP   = "client_ip"
	FieldHasToken   = "has_token"
	FieldUsername   = "username"
	FieldExpenseID  = "expense_id"
	FieldAction     = "action"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldFormat     = "format"
)

// Component names.
const (
	ComponentHTTP    = "http"
	ComponentRemote  = "remote"
	ComponentSession = "session"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExpense = "expense"
	ComponentExport  = "export"
	ComponentConfig  = "config"
)

// Operation names.
const (
	OpLogin  = "login"
	OpSignup = "signup"
	OpLogout = "logout"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpExport = "export"
)

// LogFields accumulates key/value pairs for a log call.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) with(key string, value any) LogFields {
	out := make(LogFields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[key] = value
	return out
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID == "" {
		return f
	}
	return f.with(FieldRequestID, requestID)
}

func (f LogFields) WithError(err error) LogFields {
	if err == nil {
		return f
	}
	return f.with(FieldError, err.Error())
}

func (f LogFields) WithOperation(op string) LogFields {
	return f.with(FieldOperation, op)
}

func (f LogFields) WithUsername(username string) LogFields {
	return f.with(FieldUsername, username)
}

func (f LogFields) WithExpense(id int64, amount string, category string) LogFields {
	out := f.with(FieldExpenseID, id)
	if amount != "" {
		out[FieldAmount] = amount
	}
	if category != "" {
		out[FieldCategory] = category
	}
	return out
}

// WithRemoteCall records an outbound API call. Only whether a token was
// attached is logged, never the token.
func (f LogFields) WithRemoteCall(method, path string, status int, duration time.Duration, hasToken bool) LogFields {
	out := f.with(FieldMethod, method)
	out[FieldPath] = path
	out[FieldStatus] = status
	out[FieldDurationMs] = duration.Milliseconds()
	out[FieldHasToken] = hasToken
	return out
}

// ToSlice flattens the fields for slog's variadic arguments.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
