package handler

import (
	"context"
	"net/http"

	. "todolists/internal/adapter/http/helper"
	. "todolists/internal/adapter/http/validation"
	"todolists/internal/adapter/platform"
	"todolists/internal/core/domain"
	"todolists/internal/core/model/request"
	"todolists/internal/core/model/response"
	"todolists/internal/core/port"
	"todolists/internal/core/util"
	"todolists/pkg/auth"
	"todolists/pkg/config"
	. "todolists/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type NotificationTray interface {
	List(ctx context.Context) []platform.PostedNotification
	SetEnabled(ctx context.Context, enabled bool)
	AreNotificationsEnabled(ctx context.Context) bool
}

type NotificationHandler struct {
	tray       NotificationTray
	tokens     *auth.JWT
	dispatcher port.Dispatcher
	Logger     *config.LokiLogger
}

func NewNotificationHandler(tray NotificationTray, tokens *auth.JWT, dispatcher port.Dispatcher, logger *config.LokiLogger) *NotificationHandler {
	return &NotificationHandler{
		tray:       tray,
		tokens:     tokens,
		dispatcher: dispatcher,
		Logger:     logger,
	}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	ctx := c.Request.Context()

	posted := h.tray.List(ctx)

	data := make([]response.NotificationResponse, 0, len(posted))
	for _, notification := range posted {
		data = append(data, toNotificationResponse(notification))
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled": h.tray.AreNotificationsEnabled(ctx),
		"data":    data,
	})
}

func (h *NotificationHandler) SetEnabled(c *gin.Context) {
	params, err := util.ParamsToMap[request.NotificationsEnabledRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	h.tray.SetEnabled(c.Request.Context(), *params.Enabled)

	SendSuccess(c, http.StatusOK, gin.H{"enabled": *params.Enabled})
}

// PerformAction handles a tap on a notification button. The token names the
// item and the action, so the request carries no body.
func (h *NotificationHandler) PerformAction(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.notification.PerformAction",
		HandlerAttributes("PerformAction", c.Request.Method, c.FullPath()))
	defer span.End()

	claims, err := h.tokens.VerifyActionToken(c.Param("token"))

	if err != nil {
		AddSpanError(span, err)
		SendUnauthorizedError(c, "Invalid action token")
		return
	}

	action, err := domain.ParseNotificationAction(claims.Action)

	if err != nil {
		SendBadRequestError(c, "action", err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("notification.action", string(action)),
		attribute.Int64("todo_item.id", claims.ItemID),
	)

	err = h.dispatcher.Submit(ctx, domain.NotificationActionReceived{
		Action: action,
		ItemID: claims.ItemID,
	})

	if err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to submit notification action",
			zap.Error(err),
			zap.Int64("item_id", claims.ItemID),
		)

		SendInternalError(c, "Error submitting notification action")
		return
	}

	SendSuccess(c, http.StatusAccepted, gin.H{
		"action":  action,
		"item_id": claims.ItemID,
	})
}
