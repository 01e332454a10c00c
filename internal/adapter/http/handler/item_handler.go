package handler

import (
	"net/http"

	. "todolists/internal/adapter/http/helper"
	. "todolists/internal/adapter/http/validation"
	"todolists/internal/core/model/request"
	"todolists/internal/core/port"
	"todolists/internal/core/util"
	"todolists/pkg/config"
	. "todolists/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ItemHandler struct {
	svc    port.TodoService
	Logger *config.LokiLogger
}

func NewItemHandler(svc port.TodoService, logger *config.LokiLogger) *ItemHandler {
	return &ItemHandler{
		svc:    svc,
		Logger: logger,
	}
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.item.CreateItem",
		HandlerAttributes("CreateItem", c.Request.Method, c.FullPath()))
	defer span.End()

	listID, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid list id")
		return
	}

	params, err := util.ParamsToMap[request.ItemRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	item, err := h.svc.AddItem(ctx, listID, params.Summary, params.AfterPosition)

	if err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to create item", zap.Error(err), zap.Int64("list_id", listID))

		SendDomainError(c, err, "Error creating item")
		return
	}

	span.SetAttributes(
		attribute.Int64("todo_list.id", listID),
		attribute.Int64("todo_item.id", item.ID),
	)

	SendSuccess(c, http.StatusCreated, toItemResponse(item))
}

// UpdateItem edits the summary and/or the completed flag. Completing an item
// also withdraws its reminder notification.
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.item.UpdateItem",
		HandlerAttributes("UpdateItem", c.Request.Method, c.FullPath()))
	defer span.End()

	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid item id")
		return
	}

	params, err := util.ParamsToMap[request.ItemUpdateRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if params.Summary != nil {
		if err := h.svc.EditItemSummary(ctx, id, *params.Summary); err != nil {
			AddSpanError(span, err)
			SendDomainError(c, err, "Error updating item")
			return
		}
	}

	if params.Completed != nil {
		span.SetAttributes(attribute.Bool("todo_item.completed", *params.Completed))

		if err := h.svc.CompleteItem(ctx, id, *params.Completed); err != nil {
			AddSpanError(span, err)
			h.Logger.Logger.Ctx(ctx).Error("Failed to complete item", zap.Error(err), zap.Int64("item_id", id))

			SendDomainError(c, err, "Error updating item")
			return
		}
	}

	h.respondWithList(c, id)
}

func (h *ItemHandler) MoveItem(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.item.MoveItem",
		HandlerAttributes("MoveItem", c.Request.Method, c.FullPath()))
	defer span.End()

	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid item id")
		return
	}

	params, err := util.ParamsToMap[request.MoveRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if err := h.svc.MoveItem(ctx, id, *params.AfterPosition); err != nil {
		AddSpanError(span, err)
		SendDomainError(c, err, "Error moving item")
		return
	}

	h.respondWithList(c, id)
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.item.DeleteItem",
		HandlerAttributes("DeleteItem", c.Request.Method, c.FullPath()))
	defer span.End()

	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid item id")
		return
	}

	if err := h.svc.DeleteItem(ctx, id); err != nil {
		AddSpanError(span, err)
		SendDomainError(c, err, "Error deleting item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item deleted successfully",
	})
}

// respondWithList answers item mutations with the owning list, since
// positions of the siblings may have changed too.
func (h *ItemHandler) respondWithList(c *gin.Context, itemID int64) {
	ctx := c.Request.Context()

	item, err := h.svc.GetItem(ctx, itemID)

	if err != nil {
		SendDomainError(c, err, "Error getting item")
		return
	}

	snapshot, err := h.svc.GetList(ctx, item.ListID)

	if err != nil {
		SendDomainError(c, err, "Error getting list")
		return
	}

	SendSuccess(c, http.StatusOK, toSnapshotResponse(snapshot))
}
