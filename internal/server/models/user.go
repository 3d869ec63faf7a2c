// Package models defines the Trackify domain records persisted by the
// repositories and passed between services and front ends.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Balance      decimal.Decimal
	CreatedAt    time.Time
}
