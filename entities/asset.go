package entities

// AssetKind names one of the replaceable media slots of a community.
type AssetKind string

const (
	AssetImage  AssetKind = "image"
	AssetBanner AssetKind = "banner"
)

// ParseAssetKind accepts only the recognized kinds.
func ParseAssetKind(s string) (AssetKind, bool) {
	switch AssetKind(s) {
	case AssetImage, AssetBanner:
		return AssetKind(s), true
	}
	return "", false
}

// Column is the subs table column holding the reference for k.
func (k AssetKind) Column() string {
	switch k {
	case AssetImage:
		return "image_urn"
	case AssetBanner:
		return "banner_urn"
	}
	return ""
}
