package shared

import "fmt"

// ProvisioningLockKey builds the redis key guarding tax account provisioning.
func ProvisioningLockKey(organizationID, taxType string) string {
	return fmt.Sprintf("books:provision:%s:%s:lock", organizationID, taxType)
}

// DefaultsCacheKey builds the redis key caching an organization's account defaults.
func DefaultsCacheKey(organizationID string) string {
	return fmt.Sprintf("books:defaults:%s", organizationID)
}
