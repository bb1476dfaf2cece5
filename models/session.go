package models

import (
	"strings"
	"time"
)

// DeviceType classifies the visitor's device. Fixed at session creation.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
	DeviceTablet  DeviceType = "tablet"
	DeviceUnknown DeviceType = "unknown"
)

// NormalizeDeviceType maps free-form client input onto the closed device enum.
// Matching is case-insensitive; anything else collapses to unknown.
func NormalizeDeviceType(raw string) DeviceType {
	switch dt := DeviceType(strings.ToLower(raw)); dt {
	case DeviceMobile, DeviceDesktop, DeviceTablet:
		return dt
	default:
		return DeviceUnknown
	}
}

// Default labels substituted for missing classification fields.
const (
	DefaultTrafficSource = "direct"
	DefaultCountry       = "Unknown"
	DefaultCountryCode   = "XX"
)

// Session is one visitor's interaction window with the form funnel.
// The identifier is an opaque token generated once at creation. LastActivity
// never decreases; Converted flips false -> true at most once.
type Session struct {
	SessionID        string     `json:"session_id"`
	CreatedAt        time.Time  `json:"created_at"`
	LastActivity     time.Time  `json:"last_activity"`
	Converted        bool       `json:"is_converted"`
	ConversionAmount float64    `json:"conversion_amount"`
	DeviceInfo       string     `json:"device_info,omitempty"`
	UserAgent        string     `json:"user_agent,omitempty"`
	DeviceType       DeviceType `json:"device_type"`
	UTMSource        string     `json:"utm_source"`
	UTMMedium        string     `json:"utm_medium,omitempty"`
	UTMCampaign      string     `json:"utm_campaign,omitempty"`
	Referrer         string     `json:"referrer,omitempty"`
	Country          string     `json:"country"`
	CountryCode      string     `json:"country_code"`
	IPAddress        string     `json:"ip_address,omitempty"`
}

// NewSessionRequest is the tracking payload that opens a session.
type NewSessionRequest struct {
	DeviceInfo  string `json:"device_info"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	Referrer    string `json:"referrer"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}
