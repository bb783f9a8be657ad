package dto

// RegisterCloudTokenRequest es el body de POST /v1/cloud-tokens.
type RegisterCloudTokenRequest struct {
	Device string `json:"device"`
	Token  string `json:"token"`
}
