package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/message"
)

type messageApi struct {
	svc *message.Service
}

func registerMessageAPI(r routes, svc *message.Service) {
	api := messageApi{svc: svc}

	r.handle(http.MethodDelete, "/admin/delete-message", api.destroy, r.adminOnly())
}

func (api *messageApi) destroy(ctx echo.Context) error {
	var data DeleteMessageRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if data.MessageID == "" {
		data.MessageID = ctx.QueryParam("messageId")
	}

	if err := api.svc.Delete(ctx.Request().Context(), data.MessageID); err != nil {
		return errors.Wrap(err, "deleting message")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Message deleted successfully"})
}
