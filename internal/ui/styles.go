// Package ui 实现终端客户端：一个 Bubble Tea 模型，把服务端下发的
// 过滤事件流折叠成本地状态并渲染牌桌，指令通过文本输入发出。
package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deglerj/dabb-sub000/internal/game/card"
)

// Lipgloss 样式
var (
	docStyle    = lipgloss.NewStyle().Margin(1, 2)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CD0000")).Bold(true)
	blackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	trumpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// 花色符号
var suitSymbols = map[card.Suit]string{
	card.Kreuz:   "♣",
	card.Schippe: "♠",
	card.Herz:    "♥",
	card.Bollen:  "♦",
}

// 牌面缩写
var rankSymbols = map[card.Rank]string{
	card.Buabe:  "B",
	card.Ober:   "O",
	card.Koenig: "K",
	card.Zehn:   "10",
	card.Ass:    "A",
}

// renderCard 渲染一张牌，红花色用红色
func renderCard(c card.Card) string {
	if c.Hidden() {
		return dimStyle.Render("🂠")
	}
	text := suitSymbols[c.Suit] + rankSymbols[c.Rank]
	if c.Suit == card.Herz || c.Suit == card.Bollen {
		return redStyle.Render(text)
	}
	return blackStyle.Render(text)
}

// sortedHand 返回展示顺序的手牌：按花色分组，组内从强到弱
func sortedHand(hand []card.Card) []card.Card {
	out := append([]card.Card(nil), hand...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Suit != out[j].Suit {
			return out[i].Suit < out[j].Suit
		}
		if out[i].Rank != out[j].Rank {
			return out[i].Rank > out[j].Rank
		}
		return out[i].Copy < out[j].Copy
	})
	return out
}

// renderHand 渲染带序号的手牌行，出牌和弃牌按序号选牌
func renderHand(hand []card.Card) string {
	var b strings.Builder
	for i, c := range hand {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d:", i+1)))
		b.WriteString(renderCard(c))
	}
	return b.String()
}
