package output

import (
	"fmt"
	"strings"
)

const (
	SentinelStyleLower = "lower"
	SentinelStyleTitle = "title"
)

// Sentinels are the placeholders written when a boundary of the workday is unknown.
type Sentinels struct {
	NoLogin  string
	NoLogout string
}

func DefaultSentinels() Sentinels {
	return Sentinels{NoLogin: "no login", NoLogout: "no logout"}
}

func SentinelsForStyle(style string) (Sentinels, error) {
	switch strings.TrimSpace(strings.ToLower(style)) {
	case "", SentinelStyleLower:
		return DefaultSentinels(), nil
	case SentinelStyleTitle:
		return Sentinels{NoLogin: "No Login", NoLogout: "No Logout"}, nil
	default:
		return Sentinels{}, fmt.Errorf("unsupported sentinel style: %s (supported: lower, title)", style)
	}
}
