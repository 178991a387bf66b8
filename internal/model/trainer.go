package model

import "time"

// Trainer is the owner of creatures. Identity and credentials live outside this service.
type Trainer struct {
	ID        int64
	Username  string
	Coins     int64
	CreatedAt time.Time
}
