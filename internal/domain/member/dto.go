package member

// UpsertProfileRequest is the body of PUT /members/{userID}/profile
type UpsertProfileRequest struct {
	Name   string `json:"name" validate:"trimmed_required,max=100"`
	Avatar string `json:"avatar" validate:"omitempty,url,max=2048"`
}
