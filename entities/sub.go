package entities

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultAssetURL is served when a community has no asset of a kind.
const DefaultAssetURL = "https://www.gravatar.com/avatar?d=mp&f=y"

var subNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// Owned is implemented by resources guarded by an ownership check.
type Owned interface {
	OwnedBy() string
}

// Sub is a community. Name is immutable once created.
type Sub struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ImageUrn    string    `gorm:"not null" json:"imageUrn"`
	BannerUrn   string    `gorm:"not null" json:"bannerUrn"`
	OwnerID     string    `gorm:"index;not null" json:"ownerId"`
	Username    string    `gorm:"not null" json:"username"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *Sub) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}

func (s *Sub) OwnedBy() string { return s.OwnerID }

// AssetRef returns the stored filename for kind, empty when unset.
func (s *Sub) AssetRef(kind AssetKind) string {
	switch kind {
	case AssetImage:
		return s.ImageUrn
	case AssetBanner:
		return s.BannerUrn
	}
	return ""
}

func (s *Sub) SetAssetRef(kind AssetKind, name string) {
	switch kind {
	case AssetImage:
		s.ImageUrn = name
	case AssetBanner:
		s.BannerUrn = name
	}
}

// ValidateSub checks the community creation input field by field.
func ValidateSub(name, title string) map[string]string {
	errs := map[string]string{}
	switch {
	case strings.TrimSpace(name) == "":
		errs["name"] = "Name cannot be empty."
	case !subNamePattern.MatchString(name):
		errs["name"] = "Name may only contain letters, digits and underscores (max 32)."
	}
	if strings.TrimSpace(title) == "" {
		errs["title"] = "Title cannot be empty."
	}
	return errs
}

// SubView is the JSON representation of a community with resolved asset URLs.
type SubView struct {
	*Sub
	ImageURL  string `json:"imageUrl"`
	BannerURL string `json:"bannerUrl"`
}

// View resolves stored references through urlFor, falling back to
// DefaultAssetURL when a reference is empty.
func (s *Sub) View(urlFor func(name string) string) SubView {
	resolve := func(urn string) string {
		if urn == "" || urlFor == nil {
			return DefaultAssetURL
		}
		return urlFor(urn)
	}
	return SubView{Sub: s, ImageURL: resolve(s.ImageUrn), BannerURL: resolve(s.BannerUrn)}
}
