package models

// PaymentOrder is what the gateway returns for a new order.
type PaymentOrder struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"` // smallest currency unit
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	// ClientSecret is set by gateways that complete payment client-side.
	ClientSecret string `json:"clientSecret,omitempty"`
}

// OrderRequest asks the gateway to open an order for an appointment.
type OrderRequest struct {
	AppointmentID string
	Amount        float64
	Currency      string
	Receipt       string
}

// VerifyPaymentRequest is the signed callback payload from the checkout.
type VerifyPaymentRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// PaymentStatusView is the patient-facing payment summary.
type PaymentStatusView struct {
	AppointmentID string        `json:"appointmentId"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentID     string        `json:"paymentId"`
	OrderID       string        `json:"orderId"`
	Amount        float64       `json:"amount"`
}
