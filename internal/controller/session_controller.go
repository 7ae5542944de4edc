package controller

import (
	"errors"

	"ai-oneshot-console/internal/dto"
	"ai-oneshot-console/internal/pkg/serverutils"
	"ai-oneshot-console/internal/service"
	"ai-oneshot-console/pkg/ask"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	GetOptions(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	UpdateConfiguration(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	ToggleTab(ctx *fiber.Ctx) error
	ShowCitation(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/oneshot/v1")
	h.Get("/options", c.GetOptions)
	h.Post("/sessions", c.Create)
	h.Get("/sessions/:id", c.Show)
	h.Delete("/sessions/:id", c.Delete)
	h.Patch("/sessions/:id/config", c.UpdateConfiguration)
	h.Post("/sessions/:id/ask", c.Ask)
	h.Post("/sessions/:id/retry", c.Retry)
	h.Post("/sessions/:id/cancel", c.Cancel)
	h.Post("/sessions/:id/tab", c.ToggleTab)
	h.Post("/sessions/:id/citation", c.ShowCitation)
}

func (c *sessionController) GetOptions(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get options", c.service.GetOptions()))
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.UserContext())
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteSession(ctx.UserContext(), ctx.Params("id")); err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

func (c *sessionController) UpdateConfiguration(ctx *fiber.Ctx) error {
	var req dto.UpdateConfigurationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateConfiguration(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update configuration", res))
}

// Ask blocks until the answer service settles. A failed answer is reported
// inside the view, not as an HTTP error.
func (c *sessionController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ask", res))
}

func (c *sessionController) Retry(ctx *fiber.Ctx) error {
	res, err := c.service.Retry(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success retry", res))
}

func (c *sessionController) Cancel(ctx *fiber.Ctx) error {
	res, err := c.service.Cancel(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success cancel", res))
}

func (c *sessionController) ToggleTab(ctx *fiber.Ctx) error {
	var req dto.ToggleTabRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ToggleTab(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success toggle tab", res))
}

func (c *sessionController) ShowCitation(ctx *fiber.Ctx) error {
	var req dto.ShowCitationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ShowCitation(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show citation", res))
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoQuestion):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ask.ErrInvalidConfiguration):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}
