package campaign

import "errors"

var (
	// ErrNotFound is returned when a campaign does not exist.
	ErrNotFound = errors.New("campaign: not found")

	// ErrInvalidCampaign is returned when a campaign is missing
	// required fields.
	ErrInvalidCampaign = errors.New("campaign: invalid campaign")

	// ErrNotActive is returned when running a cancelled or completed
	// campaign.
	ErrNotActive = errors.New("campaign: not active")

	// ErrTooManyItems is returned when a batch exceeds the item cap.
	ErrTooManyItems = errors.New("campaign: too many items in batch")

	// ErrStoreNil is returned when an orchestrator is created without a
	// store.
	ErrStoreNil = errors.New("campaign: store cannot be nil")
)
