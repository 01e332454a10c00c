package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todolists/internal/core/model/response"
	"todolists/pkg/test"
)

type ItemHandlerSuite struct {
	suite.Suite
	f      *fixture
	listID int64
}

func (s *ItemHandlerSuite) SetupTest() {
	RegisterTestingT(s.T())

	s.f = newFixture("")

	w := s.f.do("POST", "/lists", map[string]any{"name": "Groceries"})
	list, _ := decode[response.ListResponse](w)
	s.listID = list.ID
}

func (s *ItemHandlerSuite) TearDownTest() {
	test.TeardownDB(s.T(), s.f.DB)
}

func TestItemHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(ItemHandlerSuite))
}

func (s *ItemHandlerSuite) add(body map[string]any) response.ItemResponse {
	w := s.f.do("POST", fmt.Sprintf("/lists/%d/items", s.listID), body)
	Expect(w.Code).To(Equal(http.StatusCreated))

	item, _ := decode[response.ItemResponse](w)
	return item
}

func summaries(list response.ListResponse) []string {
	var out []string
	for _, item := range list.Items {
		out = append(out, item.Summary)
	}
	return out
}

func (s *ItemHandlerSuite) TestCreateItem_AtEndAndAfter() {
	milk := s.add(map[string]any{"summary": "Milk"})
	s.add(map[string]any{"summary": "Eggs"})
	s.add(map[string]any{"summary": "Bread", "after_position": milk.Position})

	w := s.f.do("GET", fmt.Sprintf("/lists/%d", s.listID), nil)
	list, _ := decode[response.ListResponse](w)

	Expect(summaries(list)).To(Equal([]string{"Milk", "Bread", "Eggs"}))
}

func (s *ItemHandlerSuite) TestCreateItem_UnknownList() {
	w := s.f.do("POST", "/lists/999/items", map[string]any{"summary": "Milk"})

	Expect(w.Code).To(Equal(http.StatusNotFound))
}

func (s *ItemHandlerSuite) TestUpdateItem_SummaryAndCompleted() {
	item := s.add(map[string]any{"summary": "Milk"})

	w := s.f.do("PATCH", fmt.Sprintf("/items/%d", item.ID), map[string]any{
		"summary":   "Oat milk",
		"completed": true,
	})
	Expect(w.Code).To(Equal(http.StatusOK))

	list, _ := decode[response.ListResponse](w)
	Expect(list.ID).To(Equal(s.listID))
	Expect(list.Items[0].Summary).To(Equal("Oat milk"))
	Expect(list.Items[0].Completed).To(BeTrue())

	w = s.f.do("PATCH", fmt.Sprintf("/items/%d", item.ID), map[string]any{"completed": false})
	list, _ = decode[response.ListResponse](w)
	Expect(list.Items[0].Completed).To(BeFalse())
}

func (s *ItemHandlerSuite) TestUpdateItem_NotFound() {
	w := s.f.do("PATCH", "/items/999", map[string]any{"summary": "Milk"})

	Expect(w.Code).To(Equal(http.StatusNotFound))
}

func (s *ItemHandlerSuite) TestMoveItem_ToTop() {
	s.add(map[string]any{"summary": "Milk"})
	s.add(map[string]any{"summary": "Eggs"})
	bread := s.add(map[string]any{"summary": "Bread"})

	w := s.f.do("POST", fmt.Sprintf("/items/%d/move", bread.ID), map[string]any{"after_position": -1})
	Expect(w.Code).To(Equal(http.StatusOK))

	list, _ := decode[response.ListResponse](w)
	Expect(summaries(list)).To(Equal([]string{"Bread", "Milk", "Eggs"}))
}

func (s *ItemHandlerSuite) TestDeleteItem() {
	milk := s.add(map[string]any{"summary": "Milk"})
	s.add(map[string]any{"summary": "Eggs"})

	w := s.f.do("DELETE", fmt.Sprintf("/items/%d", milk.ID), nil)
	Expect(w.Code).To(Equal(http.StatusOK))

	w = s.f.do("GET", fmt.Sprintf("/lists/%d", s.listID), nil)
	list, _ := decode[response.ListResponse](w)
	Expect(summaries(list)).To(Equal([]string{"Eggs"}))

	Expect(s.f.do("DELETE", fmt.Sprintf("/items/%d", milk.ID), nil).Code).To(Equal(http.StatusNotFound))
}
