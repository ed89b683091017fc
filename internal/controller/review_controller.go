package controller

import (
	"doc-review-be/internal/apperror"
	"doc-review-be/internal/dto"
	"doc-review-be/internal/pkg/serverutils"
	"doc-review-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IReviewController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	GenerateCleanup(ctx *fiber.Ctx) error
	GetArtifacts(ctx *fiber.Ctx) error
}

type reviewController struct {
	sessionService service.ISessionService
	chatService    service.IChatService
	cleanupService service.ICleanupService
	authMiddleware fiber.Handler
}

func NewReviewController(
	sessionService service.ISessionService,
	chatService service.IChatService,
	cleanupService service.ICleanupService,
	authMiddleware fiber.Handler,
) IReviewController {
	return &reviewController{
		sessionService: sessionService,
		chatService:    chatService,
		cleanupService: cleanupService,
		authMiddleware: authMiddleware,
	}
}

func (c *reviewController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	if c.authMiddleware != nil {
		h.Use(c.authMiddleware)
	}
	h.Post(":id/start", c.Start)
	h.Get(":id", c.Show)
	h.Post(":id/chat", c.Chat)
	h.Post(":id/cleanup/generate", c.GenerateCleanup)
	h.Get(":id/artifacts", c.GetArtifacts)
}

func (c *reviewController) Start(ctx *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	force := ctx.QueryBool("force", false)
	res, err := c.sessionService.StartSession(ctx.UserContext(), ctx.Params("id"), &req, force)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start review session", res))
}

func (c *reviewController) Show(ctx *fiber.Ctx) error {
	res, err := c.sessionService.Show(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show review session", res))
}

func (c *reviewController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.chatService.Chat(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}

func (c *reviewController) GenerateCleanup(ctx *fiber.Ctx) error {
	var req dto.CleanupRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.cleanupService.GenerateCleanup(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate cleanup artifacts", res))
}

func (c *reviewController) GetArtifacts(ctx *fiber.Ctx) error {
	res, err := c.cleanupService.GetArtifacts(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get artifacts", res))
}

// parseBody decodes and validates a JSON body. Malformed bodies are
// validation errors.
func parseBody(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return apperror.Validation("invalid request body: %v", err)
	}
	return serverutils.ValidateRequest(req)
}
