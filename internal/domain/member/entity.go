package member

import "time"

// Profile is the display identity of a member inside one community
type Profile struct {
	UserID      string    `json:"userId"`
	CommunityID string    `json:"communityId"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DisplayName returns the profile name, or the user id when no name is set
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.UserID
}
