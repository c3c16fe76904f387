package dto

// HoldOrderRequest parks the register's live cart.
type HoldOrderRequest struct {
	Note string `json:"note"`
}
