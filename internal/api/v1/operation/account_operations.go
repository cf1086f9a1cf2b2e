package operation

import "paywall/internal/api/v1/dto"

type GetMeInput struct {
	// No input needed - account comes from the session
}

type GetMeOutput struct {
	Body dto.AccountResponseDTO `json:"body"`
}
