package apperrors

import (
	"github.com/deglerj/dabb-sub000/internal/network/protocol"
)

// GameError 游戏错误（会话和规则校验共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// New 按错误码创建错误，使用协议层的默认提示
func New(code int) *GameError {
	text, ok := protocol.ErrorMessages[code]
	if !ok {
		text = protocol.ErrorMessages[protocol.ErrCodeInternal]
	}
	return &GameError{Code: code, Message: text}
}

// 预定义错误
var (
	ErrSessionNotFound = New(protocol.ErrCodeSessionNotFound)
	ErrSessionFull     = New(protocol.ErrCodeSessionFull)
	ErrNotInSession    = New(protocol.ErrCodeNotInSession)
	ErrGameStarted     = New(protocol.ErrCodeGameStarted)
	ErrGameNotStarted  = New(protocol.ErrCodeGameNotStarted)
	ErrNotYourTurn     = New(protocol.ErrCodeNotYourTurn)
	ErrInvalidBid      = New(protocol.ErrCodeInvalidBid)
	ErrCannotPass      = New(protocol.ErrCodeCannotPass)
	ErrWrongPhase      = New(protocol.ErrCodeWrongPhase)
	ErrCardNotInHand   = New(protocol.ErrCodeCardNotInHand)
	ErrInvalidPlay     = New(protocol.ErrCodeInvalidPlay)
	ErrInvalidDiscard  = New(protocol.ErrCodeInvalidDiscard)
	ErrMeldsDeclared   = New(protocol.ErrCodeMeldsDeclared)
	ErrInvalidMeld     = New(protocol.ErrCodeInvalidMeld)
	ErrDabbTaken       = New(protocol.ErrCodeDabbTaken)
	ErrCannotGoOut     = New(protocol.ErrCodeCannotGoOut)
	ErrNotEnoughSeats  = New(protocol.ErrCodeNotEnoughSeats)
	ErrInternal        = New(protocol.ErrCodeInternal)
)
