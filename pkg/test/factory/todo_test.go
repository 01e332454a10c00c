package factory

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestNewItem_KeepsCustomFields(t *testing.T) {
	RegisterTestingT(t)

	item := NewItem(map[string]any{"Summary": "Eggs"})

	Expect(item.Summary).To(Equal("Eggs"))
	Expect(item.Completed).To(BeFalse())
}

func TestNewItem_LaterMapsWin(t *testing.T) {
	RegisterTestingT(t)

	item := NewItem(map[string]any{"Summary": "Milk"}, map[string]any{"Summary": "Bread", "Completed": true})

	Expect(item.Summary).To(Equal("Bread"))
	Expect(item.Completed).To(BeTrue())
}
