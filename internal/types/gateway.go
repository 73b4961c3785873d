package types

// GatewayStatus is the status returned by the payment gateway's
// charge-at-will call. Any value outside this set is treated as a terminal
// failure (fail closed).
type GatewayStatus string

const (
	GatewayStatusCaptured       GatewayStatus = "CAPTURED"
	GatewayStatusPendingCapture GatewayStatus = "PENDING_CAPTURE"
	GatewayStatusAuthorized     GatewayStatus = "AUTHORIZED"
	GatewayStatusCreated        GatewayStatus = "CREATED"
	GatewayStatusFailed         GatewayStatus = "FAILED"
)

func (s GatewayStatus) String() string {
	return string(s)
}

// IsPending reports whether the status means the charge was accepted but the
// capture will be confirmed out of band
func (s GatewayStatus) IsPending() bool {
	switch s {
	case GatewayStatusPendingCapture, GatewayStatusAuthorized, GatewayStatusCreated:
		return true
	}
	return false
}
