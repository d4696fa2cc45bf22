// Package code defines the API result codes returned by the HTTP surface.
package code

import (
	"fmt"
	"net/http"
)

type Code struct {
	code    int
	status  bool
	msg     string
	data    interface{}
	details []string

	haveData    bool
	haveDetails bool
}

var codes = map[int]string{}

// NewError registers a failure code. Codes must be unique.
func NewError(code int, msg string) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("result code %d already registered", code))
	}
	codes[code] = msg
	return &Code{code: code, status: false, msg: msg}
}

// NewSuccess registers a success code.
func NewSuccess(code int, msg string) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("result code %d already registered", code))
	}
	codes[code] = msg
	return &Code{code: code, status: true, msg: msg}
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.msg
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

// WithMsg returns a copy carrying a custom message.
func (e *Code) WithMsg(msg string) *Code {
	clone := *e
	clone.msg = msg
	return &clone
}

// WithData returns a copy carrying a payload.
func (e *Code) WithData(data interface{}) *Code {
	clone := *e
	clone.data = data
	clone.haveData = true
	return &clone
}

// WithDetails returns a copy carrying extra detail strings.
func (e *Code) WithDetails(details ...string) *Code {
	clone := *e
	clone.details = append([]string{}, details...)
	clone.haveDetails = true
	return &clone
}

// StatusCode maps the result code to an HTTP status.
func (e *Code) StatusCode() int {
	switch e.code {
	case Success.code, SuccessCreate.code, SuccessUpdate.code, SuccessDelete.code:
		return http.StatusOK
	case ErrorInvalidParams.code:
		return http.StatusBadRequest
	case ErrorJobNotFound.code, ErrorRunNotFound.code, ErrorHostNotFound.code, ErrorNotFound.code:
		return http.StatusNotFound
	case ErrorJobRunning.code:
		return http.StatusConflict
	case ErrorAgentUnreachable.code:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
