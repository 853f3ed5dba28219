package models

// CartItem is a shopper-side line item and the tier it is counted as.
type CartItem struct {
	ProductID string `json:"productId"`
	Tier      Tier   `json:"tier"`
}

type CartRequest struct {
	CartItems []CartItem `json:"cartItems"`
}
