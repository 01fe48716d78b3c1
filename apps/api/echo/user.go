package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

type userApi struct {
	svc        *user.Service
	deleter    *cascade.Deleter
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(r routes, deps ServerDeps) {
	api := userApi{
		svc:        deps.UserSvc,
		deleter:    deps.Deleter,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	// un-authed endpoints
	r.handle(http.MethodPost, "/setup-password", api.setupPassword, r.public())

	// authed endpoints
	r.handle(http.MethodPost, "/delete-user", api.destroySelf, r.authed())

	// admin endpoints
	r.handle(http.MethodDelete, "/admin-delete-user", api.destroy, r.adminOnly())
	r.handle(http.MethodPost, "/invite-student", api.invite, r.adminOnly())
	r.handle(http.MethodPost, "/invite-student-temp-fix", api.invite, r.adminOnly())
}

func (api *userApi) validateStruct(s interface{}) error {
	if err := api.validate.Struct(s); err != nil {
		return core.TranslateErrors(err, api.translator)
	}
	return nil
}

// Handlers

func (api *userApi) invite(ctx echo.Context) error {
	var data user.NewStudent
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}

	prof, err := api.svc.Invite(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "inviting user")
	}
	return ctx.JSON(http.StatusOK, InviteResponse{
		Success: true,
		User:    prof,
		Message: fmt.Sprintf("Invitation sent to %s", prof.Email),
	})
}

func (api *userApi) setupPassword(ctx echo.Context) error {
	var data user.SetupPassword
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}

	if err := api.svc.SetupPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "setting up password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Your password has been set. You can now log in."})
}

// destroy deletes any user but the admin calling it.
func (api *userApi) destroy(ctx echo.Context) error {
	var data AdminDeleteUserRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	data.UserID = core.CleanString(data.UserID)
	if err := api.validateStruct(data); err != nil {
		return err
	}

	admin, err := getContextProfile(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	if data.UserID == admin.ID || strings.EqualFold(data.UserID, admin.Email) {
		return errSelfDeletion
	}

	name := data.UserName
	if name == "" {
		name = data.UserID
	}
	return api.runDeletion(ctx, data.UserID, user.ParseRole(data.UserType), name)
}

// destroySelf deletes the user owning email: the caller themself, or anyone if the caller is an admin.
func (api *userApi) destroySelf(ctx echo.Context) error {
	var data DeleteUserRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validateStruct(data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !strings.EqualFold(claims.Email, data.Email) {
		prof, err := getContextProfile(ctx, api.svc)
		if err != nil && !core.IsNotFound(err) {
			return errors.Wrap(err, "getting context profile")
		}
		if !prof.IsAdmin() {
			return errHttpForbidden
		}
	}

	// the role is looked up from the stores
	return api.runDeletion(ctx, data.Email, "", data.Email)
}

func (api *userApi) runDeletion(ctx echo.Context, identifier string, role user.Role, name string) error {
	res, err := api.deleter.Delete(ctx.Request().Context(), identifier, role)
	switch {
	case err == nil:
		msg := fmt.Sprintf("User %s deleted successfully", name)
		if res.Partial() {
			msg = fmt.Sprintf("User %s deleted, but %d cleanup steps failed", name, len(res.Failed()))
		}
		return ctx.JSON(http.StatusOK, DeletionResponse{Success: true, Message: msg, Result: &res})

	case res.Error == cascade.CodeUserNotFound:
		return ctx.JSON(http.StatusNotFound, DeletionResponse{Error: res.Error})

	case res.Error == cascade.CodeDeletionInProgress:
		return ctx.JSON(http.StatusConflict, DeletionResponse{Error: res.Error, Message: err.Error(), Result: &res})

	case res.Error != "":
		// IdentityDeletionFailed or ProfileDeletionFailed: the result tells which records remain
		return ctx.JSON(http.StatusInternalServerError, DeletionResponse{Error: res.Error, Message: err.Error(), Result: &res})
	}
	return errors.Wrap(err, "deleting user")
}
