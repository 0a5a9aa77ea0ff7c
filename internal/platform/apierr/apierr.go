package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"

	// 貸出・延滞料金まわり
	CodeCopyUnavailable     Code = "COPY_UNAVAILABLE"
	CodeBorrowLimitExceeded Code = "BORROW_LIMIT_EXCEEDED"
	CodeAlreadyIssued       Code = "ALREADY_ISSUED"
	CodeAlreadyReturned     Code = "ALREADY_RETURNED"
	CodeDuplicateRequest    Code = "DUPLICATE_REQUEST"
	CodeRequestCapExceeded  Code = "REQUEST_CAP_EXCEEDED"
	CodeIssueNotFound       Code = "ISSUE_NOT_FOUND"
	CodeFineAlreadySettled  Code = "FINE_ALREADY_SETTLED"
	CodeInvalidDateRange    Code = "INVALID_DATE_RANGE"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeDuplicateSubmission Code = "DUPLICATE_SUBMISSION"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func New(code Code, msg string) *APIError { return &APIError{Code: code, Message: msg} }

func ErrInvalid(msg string) *APIError   { return New(CodeInvalidArgument, msg) }
func ErrForbidden(msg string) *APIError { return New(CodeForbidden, msg) }
func ErrNotFound(msg string) *APIError  { return New(CodeNotFound, msg) }
func ErrConflict(msg string) *APIError  { return New(CodeConflict, msg) }
func ErrInternal(msg string) *APIError  { return New(CodeInternal, msg) }

// CodeOf は err が APIError ならそのコードを、そうでなければ INTERNAL を返す
func CodeOf(err error) Code {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeInternal
}

// Is: errors.Is では比較できないのでコードで判定する
func Is(err error, code Code) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code == code
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument, CodeInvalidDateRange:
			return http.StatusBadRequest
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeNotFound, CodeIssueNotFound:
			return http.StatusNotFound
		case CodeConflict, CodeCopyUnavailable, CodeBorrowLimitExceeded, CodeAlreadyIssued,
			CodeAlreadyReturned, CodeDuplicateRequest, CodeRequestCapExceeded, CodeFineAlreadySettled,
			CodeInvalidTransition, CodeDuplicateSubmission:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func Body(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

// FromErr: 内部エラーの詳細はクライアントに返さない
func FromErr(err error) errorDTO {
	var api *APIError
	if errors.As(err, &api) {
		return Body(api.Code, api.Message)
	}
	return Body(CodeInternal, "internal error")
}

// Abort はハンドラ共通のエラーレスポンス
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(ToHTTPStatus(err), FromErr(err))
}

func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Body(CodeInvalidArgument, msg))
}
