package domain

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderRequest is the minimal instruction the execution client needs to
// place an order. Size is denominated in USDC dollars.
type OrderRequest struct {
	TokenID string
	Side    OrderSide
	Price   float64
	Size    float64
}

// OrderResult is the execution client's answer: success/failure plus an
// opaque identifier for logging.
type OrderResult struct {
	OrderID string
	Success bool
	Message string
}
