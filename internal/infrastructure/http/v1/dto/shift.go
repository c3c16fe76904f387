package dto

import "tillpoint/internal/core/types"

// OpenShiftRequest opens a register shift with a counted float.
type OpenShiftRequest struct {
	RegisterID  string           `json:"registerId" binding:"required"`
	OpeningCash types.MinorUnits `json:"openingCash"`
}

// CloseShiftRequest closes a shift with the counted drawer amount.
type CloseShiftRequest struct {
	ClosingCash types.MinorUnits `json:"closingCash"`
}
