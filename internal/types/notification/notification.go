package notification

import (
	"time"
)

type DeviceToken struct {
	Token        string    `json:"token" db:"token"`
	Platform     string    `json:"platform" db:"platform"`
	RegisteredAt time.Time `json:"registeredAt" db:"registered_at"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}
