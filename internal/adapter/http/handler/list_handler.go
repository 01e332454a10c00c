package handler

import (
	"io"
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

type ListHandler struct {
	svc    port.TodoService
	Logger *config.LokiLogger
}

func NewListHandler(svc port.TodoService, logger *config.LokiLogger) *ListHandler {
	return &ListHandler{
		svc:    svc,
		Logger: logger,
	}
}

func (h *ListHandler) GetLists(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.list.GetLists",
		HandlerAttributes("GetLists", c.Request.Method, c.FullPath()))
	defer span.End()

	lists, err := h.svc.GetLists(ctx)

	if err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to get lists", zap.Error(err))

		SendInternalError(c, "Error getting lists")
		return
	}

	span.SetAttributes(attribute.Int("todo_list.count", len(lists)))

	SendSuccess(c, http.StatusOK, toListsResponse(lists))
}

func (h *ListHandler) CreateList(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.list.CreateList",
		HandlerAttributes("CreateList", c.Request.Method, c.FullPath()))
	defer span.End()

	var params request.ListRequest

	// an empty body creates an unnamed list
	if err := c.ShouldBindJSON(&params); err != nil && err != io.EOF {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	list, err := h.svc.AddList(ctx, params.Name)

	if err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to create list", zap.Error(err))

		SendDomainError(c, err, "Error creating list")
		return
	}

	span.SetAttributes(attribute.Int64("todo_list.id", list.ID))

	SendSuccess(c, http.StatusCreated, toListResponse(list))
}

func (h *ListHandler) GetList(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.list.GetList",
		HandlerAttributes("GetList", c.Request.Method, c.FullPath()))
	defer span.End()

	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid list id")
		return
	}

	snapshot, err := h.svc.GetList(ctx, id)

	if err != nil {
		AddSpanError(span, err)
		SendDomainError(c, err, "Error getting list")
		return
	}

	SendSuccess(c, http.StatusOK, toSnapshotResponse(snapshot))
}

func (h *ListHandler) RenameList(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.list.RenameList",
		HandlerAttributes("RenameList", c.Request.Method, c.FullPath()))
	defer span.End()

	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid list id")
		return
	}

	params, err := util.ParamsToMap[request.ListRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if err := h.svc.RenameList(ctx, id, params.Name); err != nil {
		AddSpanError(span, err)
		SendDomainError(c, err, "Error renaming list")
		return
	}

	h.respondWithList(c, id)
}

func (h *ListHandler) MoveList(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.list.MoveList",
		HandlerAttributes("MoveList", c.Request.Method, c.FullPath()))
	defer span.End()

	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid list id")
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

	span.SetAttributes(attribute.Int("todo_list.after_position", *params.AfterPosition))

	if err := h.svc.MoveList(ctx, id, *params.AfterPosition); err != nil {
		AddSpanError(span, err)
		SendDomainError(c, err, "Error moving list")
		return
	}

	lists, err := h.svc.GetLists(ctx)

	if err != nil {
		SendInternalError(c, "Error getting lists")
		return
	}

	SendSuccess(c, http.StatusOK, toListsResponse(lists))
}

func (h *ListHandler) DeleteList(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.list.DeleteList",
		HandlerAttributes("DeleteList", c.Request.Method, c.FullPath()))
	defer span.End()

	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid list id")
		return
	}

	if err := h.svc.DeleteList(ctx, id); err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to delete list", zap.Error(err), zap.Int64("list_id", id))

		SendDomainError(c, err, "Error deleting list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "List deleted successfully",
	})
}

func (h *ListHandler) SetReminder(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.list.SetReminder",
		HandlerAttributes("SetReminder", c.Request.Method, c.FullPath()))
	defer span.End()

	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid list id")
		return
	}

	params, err := util.ParamsToMap[request.ReminderRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	reminder, err := toReminder(params)

	if err != nil {
		SendBadRequestError(c, "reminder", err.Error())
		return
	}

	span.SetAttributes(attribute.String("reminder.kind", params.Kind))

	if err := h.svc.SetListReminder(ctx, id, reminder); err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to set reminder", zap.Error(err), zap.Int64("list_id", id))

		SendDomainError(c, err, "Error setting reminder")
		return
	}

	h.respondWithList(c, id)
}

func (h *ListHandler) DeleteCompleted(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.list.DeleteCompleted",
		HandlerAttributes("DeleteCompleted", c.Request.Method, c.FullPath()))
	defer span.End()

	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid list id")
		return
	}

	deleted, err := h.svc.DeleteCompleted(ctx, id)

	if err != nil {
		AddSpanError(span, err)
		SendDomainError(c, err, "Error deleting completed items")
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{"deleted": deleted})
}

// StreamLists pushes the ordered lists as server-sent events until the client
// goes away.
func (h *ListHandler) StreamLists(c *gin.Context) {
	updates := h.svc.ObserveLists(c.Request.Context())

	c.Stream(func(w io.Writer) bool {
		lists, ok := <-updates
		if !ok {
			return false
		}

		c.SSEvent("lists", toListsResponse(lists))
		return true
	})
}

// StreamList pushes the list and its items as server-sent events. The stream
// ends when the list is deleted.
func (h *ListHandler) StreamList(c *gin.Context) {
	id, ok := util.PathID(c, "id")
	if !ok {
		SendBadRequestError(c, "id", "Invalid list id")
		return
	}

	if _, err := h.svc.GetList(c.Request.Context(), id); err != nil {
		SendDomainError(c, err, "Error getting list")
		return
	}

	updates := h.svc.ObserveList(c.Request.Context(), id)

	c.Stream(func(w io.Writer) bool {
		snapshot, ok := <-updates
		if !ok {
			return false
		}

		c.SSEvent("list", toSnapshotResponse(snapshot))
		return true
	})
}

func (h *ListHandler) respondWithList(c *gin.Context, id int64) {
	snapshot, err := h.svc.GetList(c.Request.Context(), id)

	if err != nil {
		SendDomainError(c, err, "Error getting list")
		return
	}

	SendSuccess(c, http.StatusOK, toSnapshotResponse(snapshot))
}
