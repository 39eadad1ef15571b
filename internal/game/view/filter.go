// Package view 把完整事件流投影成单个观察者可见的版本。
// 被隐藏的牌替换成合成的 "hidden-n" 占位标识：数量和位置保留，
// 花色、牌面、副本号不可还原。过滤后的事件流仍然可以回放出
// 结构上有效的状态（手牌张数、阶段转换都正确）。
package view

import (
	"encoding/json"
	"fmt"

	"github.com/deglerj/dabb-sub000/internal/game/event"
)

// FilterEvents 过滤一批事件给指定观察者
// observer 为 -1 表示全知视角（模拟器和服务端日志用），原样返回
func FilterEvents(events []event.Event, observer int) []event.Event {
	if observer < 0 {
		return events
	}
	out := make([]event.Event, len(events))
	for i, evt := range events {
		out[i] = FilterEvent(evt, observer)
	}
	return out
}

// FilterEvent 过滤单条事件
// 发牌隐藏他人手牌和背朝下的 Dabb；弃牌对非当事人隐藏牌面。
// Dabb 被拿起时已经亮给全桌，DABB_TAKEN 不过滤；打出的牌和
// 报出的组合本来就是公开信息
func FilterEvent(evt event.Event, observer int) event.Event {
	switch evt.Type {
	case event.TypeCardsDealt:
		p, err := event.ParsePayload[event.CardsDealtPayload](evt)
		if err != nil {
			return evt
		}
		counter := 0
		hands := make([][]string, len(p.Hands))
		for i, hand := range p.Hands {
			if i == observer {
				hands[i] = hand
				continue
			}
			hands[i] = hiddenIDs(len(hand), &counter)
		}
		return withPayload(evt, event.CardsDealtPayload{
			Hands: hands,
			Dabb:  hiddenIDs(len(p.Dabb), &counter),
		})

	case event.TypeCardsDiscarded:
		p, err := event.ParsePayload[event.CardsDiscardedPayload](evt)
		if err != nil {
			return evt
		}
		if p.PlayerIndex == observer {
			return evt
		}
		counter := 0
		return withPayload(evt, event.CardsDiscardedPayload{
			PlayerIndex: p.PlayerIndex,
			Cards:       hiddenIDs(len(p.Cards), &counter),
		})

	default:
		return evt
	}
}

// hiddenIDs 生成 n 个占位标识，counter 保证同一事件内标识不重复
func hiddenIDs(n int, counter *int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("hidden-%d", *counter)
		*counter++
	}
	return out
}

// withPayload 替换事件载荷，其余字段（ID、序号、时间戳）原样保留
func withPayload(evt event.Event, payload any) event.Event {
	data, err := json.Marshal(payload)
	if err != nil {
		return evt
	}
	evt.Payload = data
	return evt
}
