package models

const (
	// Статусы бронирований
	BookingConfirmed = "CONFIRMED"
	BookingActive    = "ACTIVE"
	BookingCancelled = "CANCELLED"
	BookingCompleted = "COMPLETED"
)

const (
	// Статусы записей в листе ожидания
	WaitlistWaiting   = "WAITING"
	WaitlistFulfilled = "FULFILLED"
	WaitlistExpired   = "EXPIRED"
)

const (
	// Живые статусы ресурса для дашборда
	LiveAvailable   = "AVAILABLE"
	LiveInUse       = "IN_USE"
	LiveMaintenance = "MAINTENANCE"
	LiveFullyBooked = "FULLY_BOOKED"
)

const (
	CategoryLaundry   = "LAUNDRY"
	CategoryBadminton = "BADMINTON"
)

const (
	// DefaultSlotMinutes длительность одного окна бронирования
	DefaultSlotMinutes = 45

	// DefaultSlotCount максимум окон, генерируемых на день
	DefaultSlotCount = 16

	// DefaultClosingHour час закрытия: окна, начинающиеся в этот час и позже, не выдаются
	DefaultClosingHour = 23

	// DefaultMinimumUsableMinutes минимальный остаток времени, который имеет смысл передавать из листа ожидания
	DefaultMinimumUsableMinutes = 25

	// DefaultStatusCacheTTL время жизни кэша живого статуса в секундах
	DefaultStatusCacheTTL = 5

	// WorkerQueueSize размер очереди воркера уведомлений
	WorkerQueueSize = 1000

	// Значения rate limit для API по умолчанию
	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 5

	// Лимит вступлений в очередь на одного пользователя за окно
	DefaultWaitlistJoinLimit         = 5
	DefaultWaitlistJoinWindowSeconds = 60
)
