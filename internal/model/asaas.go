package model

// Asaas API payload shapes. Only the fields the service reads are mapped.

type AsaasCustomer struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	CpfCnpj           string `json:"cpfCnpj"`
	Phone             string `json:"phone"`
	Deleted           bool   `json:"deleted"`
	ExternalReference string `json:"externalReference"`
}

type AsaasPayment struct {
	ID                string  `json:"id"`
	Customer          string  `json:"customer"`
	Subscription      string  `json:"subscription"`
	Status            string  `json:"status"` // PENDING, CONFIRMED, RECEIVED, OVERDUE, REFUNDED
	Value             float64 `json:"value"`
	BillingType       string  `json:"billingType"`
	InstallmentCount  int     `json:"installmentCount"`
	InvoiceUrl        string  `json:"invoiceUrl"`
	ExternalReference string  `json:"externalReference"`
	DueDate           string  `json:"dueDate"`
	Deleted           bool    `json:"deleted"`
}

type AsaasPaymentLink struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// AsaasList is the envelope Asaas wraps every collection response in.
type AsaasList[T any] struct {
	HasMore    bool `json:"hasMore"`
	TotalCount int  `json:"totalCount"`
	Data       []T  `json:"data"`
}

type AsaasError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type AsaasErrorResponse struct {
	Errors []AsaasError `json:"errors"`
}

type AsaasWebhookEvent struct {
	ID           string       `json:"id"`
	Event        string       `json:"event"` // PAYMENT_CONFIRMED, PAYMENT_RECEIVED, ...
	Payment      AsaasPayment `json:"payment"`
	Subscription struct {
		ID string `json:"id"`
	} `json:"subscription"`
}
