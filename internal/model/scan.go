package model

import "time"

// ScanResult is one stored badge scan. Value is the uniqueness key.
type ScanResult struct {
	Value     string    `json:"value"`
	Symbology string    `json:"symbology"`
	FirstSeen time.Time `json:"firstSeen"`
}
