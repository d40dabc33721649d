package dto

// GateRequest carries the shared access key.
type GateRequest struct {
	Password string `json:"password" binding:"required"`
}

type GateResponse struct {
	Token string `json:"token"`
}
