package helper

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"todolists/internal/core/domain"
	"todolists/internal/core/model/response"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func sendDomainError(err error) (*httptest.ResponseRecorder, response.ErrorResponse) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendDomainError(c, err, "Error handling request")

	var body response.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &body)

	return w, body
}

func TestSendDomainError_NotFound(t *testing.T) {
	RegisterTestingT(t)

	w, body := sendDomainError(fmt.Errorf("get list 7: %w", domain.ErrListNotFound))

	Expect(w.Code).To(Equal(http.StatusNotFound))
	Expect(body.Error.Code).To(Equal("NOT_FOUND"))

	w, _ = sendDomainError(domain.ErrItemNotFound)
	Expect(w.Code).To(Equal(http.StatusNotFound))
}

func TestSendDomainError_Internal(t *testing.T) {
	RegisterTestingT(t)

	w, body := sendDomainError(errors.New("disk full"))

	Expect(w.Code).To(Equal(http.StatusInternalServerError))
	Expect(body.Error.Code).To(Equal("INTERNAL_ERROR"))
	Expect(body.Error.Errors[0].Message).To(Equal("Error handling request"))
}
