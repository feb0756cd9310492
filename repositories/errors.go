package repositories

import (
	"errors"
	"fmt"

	"github.com/farmily/fhs/auth"
)

var (
	// ErrNotFound is returned when no row matches. It also matches
	// auth.ErrNotFound so the user store can serve identity lookups directly.
	ErrNotFound = fmt.Errorf("record not found: %w", auth.ErrNotFound)

	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("record already exists")
)
