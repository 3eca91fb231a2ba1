package entities

import "time"

const EventAssetUpdated = "sub.asset_updated"

// SubEvent is pushed to live subscribers of a community.
type SubEvent struct {
	Type string    `json:"type"`
	Sub  string    `json:"sub"`
	Kind AssetKind `json:"kind,omitempty"`
	URL  string    `json:"url,omitempty"`
	At   time.Time `json:"at"`
}
