package responses

// Body wraps every successful storefront payload as {"data": ...}.
type Body struct {
	Data any `json:"data"`
}

// Failure is the client-facing shape of a pkg/errors error. Details carries
// field errors for VALIDATION_ERROR and the offending values for cart and
// stock failures.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// FailureBody wraps a Failure as {"error": ...}.
type FailureBody struct {
	Error Failure `json:"error"`
}
