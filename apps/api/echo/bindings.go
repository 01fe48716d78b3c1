package echoapi

import (
	"encoding/json"
	"io"
	"io/ioutil"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

const maxBodySize = 1 << 20

type (
	DeleteMessageRequest struct {
		MessageID string `json:"messageId"`
	}

	AdminDeleteUserRequest struct {
		UserID   string `json:"userId" validate:"required"`
		UserType string `json:"userType"`
		UserName string `json:"userName"`
	}

	DeleteUserRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	InviteResponse struct {
		Success bool         `json:"success"`
		User    user.Profile `json:"user"`
		Message string       `json:"message"`
	}

	// DeletionResponse reports the outcome of a user deletion, step by step.
	DeletionResponse struct {
		Success bool                    `json:"success"`
		Message string                  `json:"message,omitempty"`
		Error   string                  `json:"error,omitempty"`
		Result  *cascade.DeletionResult `json:"result,omitempty"`
	}
)

// bindJSON decodes the JSON body of the request into dest. An empty body leaves dest untouched.
func bindJSON(ctx echo.Context, dest interface{}) error {
	body, err := ioutil.ReadAll(io.LimitReader(ctx.Request().Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "reading request body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return errInvalidPayload
	}
	return nil
}
