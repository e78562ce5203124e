package enums

import "fmt"

// ReturnStatus tracks the lifecycle of a product return request.
type ReturnStatus string

const (
	ReturnStatusPending    ReturnStatus = "PENDING"
	ReturnStatusProcessing ReturnStatus = "PROCESSING"
	ReturnStatusPickup     ReturnStatus = "PICKUP"
	ReturnStatusResolved   ReturnStatus = "RESOLVED"
	ReturnStatusCancelled  ReturnStatus = "CANCELLED"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusProcessing,
	ReturnStatusPickup,
	ReturnStatusResolved,
	ReturnStatusCancelled,
}

// String implements fmt.Stringer.
func (r ReturnStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnStatus.
func (r ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
