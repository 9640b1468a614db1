package entity

type CreateOrderRequest struct {
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PayCurrency string             `json:"pay_currency" validate:"required,min=2,max=10"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,len=24,hexadecimal"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending confirmed processing completed cancelled"`
}

// PaymentWebhookRequest - уведомление платежного шлюза о смене статуса
type PaymentWebhookRequest struct {
	PaymentID     string        `json:"payment_id" validate:"required"`
	PaymentStatus PaymentStatus `json:"payment_status" validate:"required,oneof=waiting confirming confirmed finished failed expired"`
	PayAmount     float64       `json:"pay_amount"`
	PayCurrency   string        `json:"pay_currency"`
}

// CreateOrderResponse - созданный заказ вместе с реквизитами оплаты
type CreateOrderResponse struct {
	Order   OrderWithItems      `json:"order"`
	Payment *PaymentTransaction `json:"payment,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}
