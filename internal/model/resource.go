package model

// ResourceType discriminates what kind of fleet resource an assignment claims.
type ResourceType string

const (
	ResourceTypeVehicle ResourceType = "VEHICLE"
	ResourceTypeDriver  ResourceType = "DRIVER"
)

// ResourceStatus is the operational lifecycle state of a vehicle or driver.
// It is independent of assignments: only ACTIVE resources can be claimed.
type ResourceStatus string

const (
	ResourceStatusActive      ResourceStatus = "ACTIVE"
	ResourceStatusInactive    ResourceStatus = "INACTIVE"
	ResourceStatusMaintenance ResourceStatus = "MAINTENANCE"
	ResourceStatusTerminated  ResourceStatus = "TERMINATED"
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceStatusActive, ResourceStatusInactive, ResourceStatusMaintenance, ResourceStatusTerminated:
		return true
	default:
		return false
	}
}
