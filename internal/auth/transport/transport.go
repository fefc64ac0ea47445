package transport

// DeviceTokenRequest exchanges a provisioned device secret for a bearer token.
type DeviceTokenRequest struct {
	DeviceID     string `json:"deviceId" validate:"required,min=3,max=128"`
	DeviceSecret string `json:"deviceSecret" validate:"required,min=16"`
}

// DeviceTokenResponse carries the signed token and its expiry.
type DeviceTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"` // epoch seconds
}
