package handler

import (
	"todolists/internal/adapter/platform"
	"todolists/internal/core/domain"
	"todolists/internal/core/model/request"
	"todolists/internal/core/model/response"
)

func toReminderResponse(reminder domain.Reminder) *response.ReminderResponse {
	switch r := reminder.(type) {
	case domain.TimeReminder:
		return &response.ReminderResponse{
			Kind:     string(domain.ReminderKindTime),
			DateTime: r.String(),
		}
	case domain.LocationReminder:
		return &response.ReminderResponse{
			Kind: string(domain.ReminderKindLocation),
			Location: &response.LocationResponse{
				Latitude:    r.Location.Latitude,
				Longitude:   r.Location.Longitude,
				Radius:      r.Location.Radius,
				Description: r.Location.Description,
			},
		}
	default:
		return nil
	}
}

func toListResponse(list domain.TodoList) response.ListResponse {
	return response.ListResponse{
		ID:             list.ID,
		Name:           list.Name,
		Position:       list.Position,
		Reminder:       toReminderResponse(list.Reminder),
		NotificationID: list.NotificationID,
	}
}

func toListsResponse(lists []domain.TodoList) []response.ListResponse {
	data := make([]response.ListResponse, 0, len(lists))
	for _, list := range lists {
		data = append(data, toListResponse(list))
	}
	return data
}

func toSnapshotResponse(snapshot domain.ListSnapshot) response.ListResponse {
	data := toListResponse(snapshot.List)
	data.Items = make([]response.ItemResponse, 0, len(snapshot.Items))

	for _, item := range snapshot.Items {
		data.Items = append(data.Items, toItemResponse(item))
	}

	return data
}

func toItemResponse(item domain.TodoItem) response.ItemResponse {
	return response.ItemResponse{
		ID:             item.ID,
		ListID:         item.ListID,
		Summary:        item.Summary,
		Completed:      item.Completed,
		Position:       item.Position,
		NotificationID: item.NotificationID,
	}
}

func toNotificationResponse(posted platform.PostedNotification) response.NotificationResponse {
	n := posted.Notification

	actions := make(map[string]string, len(posted.ActionTokens))
	for action, token := range posted.ActionTokens {
		actions[string(action)] = token
	}

	return response.NotificationResponse{
		ID:           posted.ID,
		ListID:       n.ListID,
		ItemID:       n.ItemID,
		Title:        n.Title,
		Text:         n.Text,
		Lines:        n.Lines,
		GroupKey:     n.GroupKey,
		SortKey:      n.SortKey,
		GroupSummary: n.GroupSummary,
		DeepLink:     n.DeepLink,
		Actions:      actions,
		PostedAt:     posted.PostedAt,
	}
}

func toJobResponse(job domain.Job) response.JobResponse {
	return response.JobResponse{
		UUID:      job.UUID,
		Kind:      string(job.Kind),
		Scope:     job.Scope,
		State:     string(job.State),
		Attempts:  job.Attempts,
		LastError: job.LastError,
		RunAfter:  job.RunAfter,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

// toReminder turns a validated request into a reminder. Kind "none" yields nil.
func toReminder(req request.ReminderRequest) (domain.Reminder, error) {
	kind, err := domain.ParseReminderKind(req.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.ReminderKindTime:
		reminder, err := domain.ParseTimeReminder(req.DateTime)
		if err != nil {
			return nil, err
		}
		return reminder, nil
	case domain.ReminderKindLocation:
		return domain.LocationReminder{
			Location: domain.Location{
				Latitude:    req.Location.Latitude,
				Longitude:   req.Location.Longitude,
				Radius:      req.Location.Radius,
				Description: req.Location.Description,
			},
		}, nil
	default:
		return nil, nil
	}
}
