package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/gin-gonic/gin"
)

// envelope is the success body.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

// errorEnvelope is the failure body; every error takes this shape.
type errorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c *gin.Context, status int, data any, message string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, envelope{StatusCode: status, Data: data, Message: message})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorEnvelope{StatusCode: status, Message: message})
}

// respondError maps err to a status by its class. Internal errors never
// leak their text.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		respondMessage(c, status, "Internal server error")
		return
	}
	respondMessage(c, status, publicMessage(err))
}

var classes = []struct {
	err    error
	status int
}{
	{common.ErrorValidation, http.StatusBadRequest},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrorConflict, http.StatusConflict},
}

func statusFor(err error) int {
	for _, cl := range classes {
		if errors.Is(err, cl.err) {
			return cl.status
		}
	}
	return http.StatusInternalServerError
}

// publicMessage turns "class: detail" into "Detail".
func publicMessage(err error) string {
	msg := err.Error()
	for _, cl := range classes {
		if !errors.Is(err, cl.err) {
			continue
		}
		detail, ok := strings.CutPrefix(msg, cl.err.Error()+": ")
		if !ok {
			detail = msg
		}
		if cl.err == common.ErrorConflict && detail != msg {
			detail += " already exists"
		}
		return capitalize(detail)
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
