package dto

type CreatePaymentIntentDTO struct {
	Price float64 `json:"price" binding:"required,gt=0"`
}

type CreateSubscriptionDTO struct {
	SubscriptionPeriod string  `json:"subscriptionPeriod" binding:"required"`
	SubscriptionCost   float64 `json:"subscriptionCost" binding:"required,gt=0"`
	PaymentIntentID    string  `json:"paymentIntentId" binding:"required"`
}
