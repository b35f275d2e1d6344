package service

import "errors"

var (
	ErrInvalidDateRange  = errors.New("check-out must be after check-in")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotAvailable      = errors.New("no rooms available for the selected dates")
	ErrPaymentIncomplete = errors.New("all payment fields are required")
	ErrFlowNotFound      = errors.New("booking flow not found")
	ErrInvalidTransition = errors.New("invalid booking flow transition")
	ErrInvalidSiteConfig = errors.New("invalid site config")
)
