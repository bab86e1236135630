package types

// SuccessEnvelope wraps every 2xx payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the body of a failed request. Overlay tells the kiosk which
// blocking screen to raise and RetryAfterSeconds how long its countdown runs.
type APIError struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	Overlay           string `json:"overlay,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
	Details           any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
