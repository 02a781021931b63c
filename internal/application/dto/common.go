package dto

// DateLayout formato de fechas en requests y responses (solo fecha).
const DateLayout = "2006-01-02"

// ErrorResponse cuerpo de error HTTP.
// Fields lleva los errores por campo cuando Code es VALIDATION_ERROR.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
