package store

import "errors"

var errRunRequired = errors.New("run is required")
