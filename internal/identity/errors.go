// Package identity связывает витрину с внешним провайдером идентификации.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Code: код ошибки провайдера идентификации.
type Code string

const (
	CodePopupClosed         Code = "auth/popup-closed-by-user"
	CodeCancelledPopup      Code = "auth/cancelled-popup-request"
	CodePopupBlocked        Code = "auth/popup-blocked"
	CodeOperationNotAllowed Code = "auth/operation-not-allowed"
	CodeUnauthorizedDomain  Code = "auth/unauthorized-domain"
)

// Error: ошибка входа с кодом провайдера.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UserMessage переводит ошибку входа в сообщение для пользователя.
func UserMessage(err error) string {
	var ie *Error
	if !errors.As(err, &ie) {
		if errors.Is(err, context.Canceled) {
			return messages[CodePopupClosed]
		}
		return fmt.Sprintf(genericMessage, err.Error())
	}
	if msg, ok := messages[ie.Code]; ok {
		return msg
	}
	detail := ie.Message
	if detail == "" {
		detail = string(ie.Code)
	}
	return fmt.Sprintf(genericMessage, detail)
}

const genericMessage = "로그인 중 오류가 발생했습니다: %s"

var messages = map[Code]string{
	CodePopupClosed:         "로그인 창이 닫혔습니다. 다시 시도해주세요.",
	CodeCancelledPopup:      "이미 로그인 창이 열려 있습니다.",
	CodePopupBlocked:        "팝업이 차단되었습니다. 브라우저에서 팝업을 허용해주세요.",
	CodeOperationNotAllowed: "로그인 방식이 설정되지 않았습니다. 관리자에게 문의해주세요.",
	CodeUnauthorizedDomain:  "승인되지 않은 도메인입니다. 관리자에게 문의해주세요.",
}
