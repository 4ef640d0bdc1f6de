package log

// Field names shared by every log line.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldSessionID  = "session_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldOperation  = "operation"
	FieldResource   = "resource"
	FieldResourceID = "resource_id"
	FieldUsername   = "username"
	FieldMissing    = "missing_fields"
	FieldPage       = "page"
)

// Component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentForms    = "forms"
	ComponentSession  = "session"
	ComponentGuard    = "guard"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentTrace    = "trace"
	ComponentTemplate = "template"
	ComponentPage     = "page"
)

// OpRender marks failures while executing a template.
const OpRender = "render"

// Fields collects attributes for one log line.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithClientIP(ip string) Fields {
	if ip != "" {
		f[FieldClientIP] = ip
	}
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithRequest records method, path and, when present, query and user agent.
func (f Fields) WithRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f Fields) WithStatus(status int, durationMs int64) Fields {
	f[FieldStatusCode] = status
	f[FieldDuration] = durationMs
	return f
}

// Args flattens f into slog key/value pairs.
func (f Fields) Args() []any {
	args := make([]any, 0, len(f)*2)
	for k, v := range f {
		args = append(args, k, v)
	}
	return args
}
