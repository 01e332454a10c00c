package factory

import (
	fab "github.com/Goldziher/fabricator"

	"todolists/internal/core/domain"
)

// NewItem builds a pending item with a fake summary. Later maps override
// earlier ones.
func NewItem(customData ...map[string]any) domain.TodoItem {
	data := map[string]any{"Completed": false}

	for _, custom := range customData {
		for key, value := range custom {
			data[key] = value
		}
	}

	return fab.New(domain.TodoItem{}).Build(data)
}

func NewItems(count int, customData ...map[string]any) []domain.TodoItem {
	items := make([]domain.TodoItem, 0, count)

	for i := 0; i < count; i++ {
		items = append(items, NewItem(customData...))
	}

	return items
}
