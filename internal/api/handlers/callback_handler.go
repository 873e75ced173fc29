package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	config "github.com/socialmatic/socialmatic/configs"
	"github.com/socialmatic/socialmatic/internal/identity"
	"github.com/socialmatic/socialmatic/internal/models"
	"github.com/socialmatic/socialmatic/internal/service"
	"github.com/socialmatic/socialmatic/internal/transfer"
	"github.com/socialmatic/socialmatic/pkg/utils"
)

// CallbackHandler receives the queue's delivery call for one platform.
// The endpoint is fixed per platform, so routing is by URL, never by
// payload content.
type CallbackHandler struct {
	cfg       config.Config
	platform  models.Platform
	resolver  identity.TokenResolver
	publisher service.Publisher
}

func NewCallbackHandler(cfg config.Config, platform models.Platform, resolver identity.TokenResolver, publisher service.Publisher) *CallbackHandler {
	return &CallbackHandler{
		cfg:       cfg,
		platform:  platform,
		resolver:  resolver,
		publisher: publisher,
	}
}

// HandleDelivery gates, in order: signature verification on the raw
// body, payload parsing, credential resolution, publish. No field of
// the body is trusted before the signature check passes.
func (h *CallbackHandler) HandleDelivery(c *fiber.Ctx) error {
	body := c.Body()

	signature := c.Get(utils.SignatureHeader)
	if signature == "" || !utils.VerifySignature(body, []byte(h.cfg.SigningSecret), signature) {
		slog.Info("rejected unverified delivery", "platform", string(h.platform))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid signature",
		})
	}

	var payload transfer.DeliveryBody
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse delivery body",
		})
	}
	if payload.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user id",
		})
	}

	cred, err := h.resolver.Resolve(c.Context(), payload.UserID, h.platform)
	if err != nil {
		if errors.Is(err, identity.ErrNotLinked) {
			slog.Info("no linked account", "user_id", payload.UserID, "platform", string(h.platform))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No linked account for platform",
			})
		}
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		})
	}

	platformPostID, err := h.publisher.Publish(c.Context(), cred, payload.Content)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Publish failed",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"platform_post_id": platformPostID,
	})
}
