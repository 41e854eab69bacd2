package service

import (
	"fmt"

	"github.com/Skotchmaster/storefront/internal/domain"
)

// CheckOwnership compares owner ids by value. It must run after the resource
// is loaded and before any write.
func CheckOwnership(ownerID, callerID string) error {
	if ownerID == "" || callerID == "" || ownerID != callerID {
		return fmt.Errorf("caller %q does not own resource: %w", callerID, domain.ErrForbidden)
	}
	return nil
}
