package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services and transports can translate them.
//
// - ErrNotFound: entity does not exist in store
var (
	ErrNotFound = errors.New("not found")
)
