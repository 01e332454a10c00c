package handler

import (
	"context"
	"net/http"

	. "todolists/internal/adapter/http/helper"
	. "todolists/internal/adapter/http/validation"
	"todolists/internal/adapter/platform"
	"todolists/internal/core/domain"
	"todolists/internal/core/model/request"
	"todolists/internal/core/port"
	"todolists/internal/core/util"
	"todolists/pkg/config"
	. "todolists/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type PermissionRegistry interface {
	Set(ctx context.Context, permission domain.Permission, granted bool) error
	All(ctx context.Context) map[domain.Permission]bool
}

type LocationReporter interface {
	ReportLocation(ctx context.Context, position platform.Coordinates) error
}

// SignalHandler receives the system events a device reports: boot,
// permission changes and location fixes.
type SignalHandler struct {
	dispatcher  port.Dispatcher
	permissions PermissionRegistry
	locations   LocationReporter
	Logger      *config.LokiLogger
}

func NewSignalHandler(dispatcher port.Dispatcher, permissions PermissionRegistry, locations LocationReporter, logger *config.LokiLogger) *SignalHandler {
	return &SignalHandler{
		dispatcher:  dispatcher,
		permissions: permissions,
		locations:   locations,
		Logger:      logger,
	}
}

func (h *SignalHandler) Boot(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.signal.Boot",
		HandlerAttributes("Boot", c.Request.Method, c.FullPath()))
	defer span.End()

	if err := h.dispatcher.Submit(ctx, domain.BootCompleted{}); err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to submit boot signal", zap.Error(err))

		SendInternalError(c, "Error submitting boot signal")
		return
	}

	SendSuccess(c, http.StatusAccepted, nil, "Boot signal accepted")
}

func (h *SignalHandler) GetPermissions(c *gin.Context) {
	permissions := h.permissions.All(c.Request.Context())

	data := make(map[string]bool, len(permissions))
	for permission, granted := range permissions {
		data[string(permission)] = granted
	}

	SendSuccess(c, http.StatusOK, data)
}

func (h *SignalHandler) SetPermission(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.signal.SetPermission",
		HandlerAttributes("SetPermission", c.Request.Method, c.FullPath()))
	defer span.End()

	params, err := util.ParamsToMap[request.PermissionRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	permission, _ := domain.ParsePermission(params.Permission)

	span.SetAttributes(
		attribute.String("permission.name", params.Permission),
		attribute.Bool("permission.granted", params.Granted),
	)

	if err := h.permissions.Set(ctx, permission, params.Granted); err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to set permission", zap.Error(err), zap.String("permission", params.Permission))

		SendInternalError(c, "Error setting permission")
		return
	}

	SendSuccess(c, http.StatusAccepted, gin.H{
		"permission": params.Permission,
		"granted":    params.Granted,
	})
}

func (h *SignalHandler) ReportLocation(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.signal.ReportLocation",
		HandlerAttributes("ReportLocation", c.Request.Method, c.FullPath()))
	defer span.End()

	params, err := util.ParamsToMap[request.LocationFixRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	err = h.locations.ReportLocation(ctx, platform.Coordinates{
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
	})

	if err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to report location", zap.Error(err))

		SendInternalError(c, "Error reporting location")
		return
	}

	SendSuccess(c, http.StatusAccepted, nil, "Location accepted")
}
