package models

// ConnectRequest carries interactive login credentials
type ConnectRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ConnectResponse is returned after a successful login
type ConnectResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// ConnectionStatus describes whether publishing is possible
type ConnectionStatus struct {
	Connected bool    `json:"connected"`
	Username  *string `json:"username"`
}

// GenerateVideoRequest asks for a new video from a prompt
type GenerateVideoRequest struct {
	Prompt   string `json:"prompt"`
	Style    string `json:"style,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// GenerateVideoResponse carries the playable video URL
type GenerateVideoResponse struct {
	VideoURL string `json:"videoUrl"`
}

// PublishRequest asks for a video to be posted
type PublishRequest struct {
	VideoURL string `json:"videoUrl"`
	Caption  string `json:"caption,omitempty"`
}

// PublishResponse is returned after a post was created
type PublishResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PostID  string `json:"postId"`
}

// SuccessResponse is a bare acknowledgement
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
