package response

import (
	"encoding/base64"

	"renderapi/internal/api/render"
)

type RenderErrorBody struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Details     string   `json:"details,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

type RenderFailure struct {
	Success bool            `json:"success"`
	Error   RenderErrorBody `json:"error"`
}

type RenderSuccess struct {
	Success  bool            `json:"success"`
	Image    string          `json:"image"`
	Metadata render.Metadata `json:"metadata"`
}

func NewRenderSuccess(result *render.RenderResult) RenderSuccess {
	return RenderSuccess{
		Success:  true,
		Image:    base64.StdEncoding.EncodeToString(result.Image),
		Metadata: result.Metadata,
	}
}

func NewRenderFailure(code, message string) RenderFailure {
	return RenderFailure{
		Error: RenderErrorBody{Code: code, Message: message},
	}
}
