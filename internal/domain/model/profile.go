package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a locally cached copy of a user's WakaTime profile, refreshed
// from the provider when it goes stale.
type Profile struct {
	userID        uuid.UUID
	displayName   string
	fullName      string
	username      string
	photoURL      string
	isPhotoPublic bool
	email         string
	timezone      string
	lastCachedAt  time.Time
}

// NewProfile creates a Profile from freshly fetched provider data.
func NewProfile(
	userID uuid.UUID,
	displayName string,
	fullName string,
	username string,
	photoURL string,
	isPhotoPublic bool,
	email string,
	timezone string,
) *Profile {
	return &Profile{
		userID:        userID,
		displayName:   displayName,
		fullName:      fullName,
		username:      username,
		photoURL:      photoURL,
		isPhotoPublic: isPhotoPublic,
		email:         email,
		timezone:      timezone,
		lastCachedAt:  time.Now().UTC(),
	}
}

// ReconstructProfile creates a Profile from persisted data.
func ReconstructProfile(
	userID uuid.UUID,
	displayName string,
	fullName string,
	username string,
	photoURL string,
	isPhotoPublic bool,
	email string,
	timezone string,
	lastCachedAt time.Time,
) *Profile {
	return &Profile{
		userID:        userID,
		displayName:   displayName,
		fullName:      fullName,
		username:      username,
		photoURL:      photoURL,
		isPhotoPublic: isPhotoPublic,
		email:         email,
		timezone:      timezone,
		lastCachedAt:  lastCachedAt,
	}
}

func (p *Profile) UserID() uuid.UUID       { return p.userID }
func (p *Profile) DisplayName() string     { return p.displayName }
func (p *Profile) FullName() string        { return p.fullName }
func (p *Profile) Username() string        { return p.username }
func (p *Profile) PhotoURL() string        { return p.photoURL }
func (p *Profile) IsPhotoPublic() bool     { return p.isPhotoPublic }
func (p *Profile) Email() string           { return p.email }
func (p *Profile) Timezone() string        { return p.timezone }
func (p *Profile) LastCachedAt() time.Time { return p.lastCachedAt }

// Stale reports whether the cached profile is older than maxAge.
func (p *Profile) Stale(now time.Time, maxAge time.Duration) bool {
	return !p.lastCachedAt.Add(maxAge).After(now)
}
