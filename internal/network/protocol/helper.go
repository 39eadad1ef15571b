package protocol

import (
	"encoding/json"
	"fmt"
)

// NewMessage 创建一条消息，payload 为 nil 时信封不带载荷
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	msg := &Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("序列化 %s 载荷失败: %w", msgType, err)
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 同 NewMessage，失败直接 panic
// 载荷都是本包定义的结构体，序列化失败属于编程错误
func MustNewMessage(msgType MessageType, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 编码为发送用的 JSON
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode 从收到的 JSON 解出消息
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("解析消息失败: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("消息缺少类型字段")
	}
	return &msg, nil
}

// ParsePayload 把消息载荷解析成指定类型
func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("解析 %s 载荷失败: %w", msg.Type, err)
	}
	return &payload, nil
}

// NewErrorMessage 按错误码创建错误消息，使用默认提示
func NewErrorMessage(code int) *Message {
	text, ok := ErrorMessages[code]
	if !ok {
		text = ErrorMessages[ErrCodeInternal]
	}
	return NewErrorMessageWithText(code, text)
}

// NewErrorMessageWithText 按错误码和自定义提示创建错误消息
func NewErrorMessageWithText(code int, text string) *Message {
	return MustNewMessage(TypeError, ErrorPayload{Code: code, Message: text})
}
