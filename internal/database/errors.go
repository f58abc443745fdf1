package database

import "errors"

var (
	// ErrResourceUnavailable — ресурс не существует или на обслуживании
	ErrResourceUnavailable = errors.New("resource is not available or under maintenance")

	// ErrSlotTaken is returned from the locked section when the requested
	// window conflicts with a live booking. Callers use it to offer the
	// waitlist instead of a generic failure.
	ErrSlotTaken = errors.New("slot is already taken")

	// ErrAlreadyQueued — пользователь уже стоит в очереди этой категории
	ErrAlreadyQueued = errors.New("already on the waitlist")

	// ErrInvalidBooking — отмена невозможна: брони нет или она не CONFIRMED
	ErrInvalidBooking = errors.New("invalid booking")

	// ErrInvalidState marks a waitlist fulfilment on a non-WAITING entry.
	// This is an internal consistency fault, not user input.
	ErrInvalidState = errors.New("waitlist entry is not in WAITING state")

	// ErrPastSlot и ErrOffGrid — валидация запрошенного окна
	ErrPastSlot = errors.New("requested slot is in the past")
	ErrOffGrid  = errors.New("requested window does not match a generated slot")

	// ErrMissingFields — в запросе не хватает обязательных полей
	ErrMissingFields = errors.New("required fields are missing")

	// ErrRateLimited — пользователь слишком часто встает в очередь
	ErrRateLimited = errors.New("too many requests")
)
