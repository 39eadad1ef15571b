package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deglerj/dabb-sub000/internal/game/card"
)

// View 渲染牌桌
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Binokel"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  会话 %s · 第 %d 轮 · 目标 %d 分", m.sessionID, max(m.st.Round, 1), m.st.TargetScore)))
	b.WriteString("\n\n")

	b.WriteString(m.renderPlayers())
	b.WriteString("\n")
	b.WriteString(m.renderPhase())
	b.WriteString("\n")

	if len(m.st.CurrentTrick.Cards) > 0 {
		b.WriteString(m.renderTrick())
		b.WriteString("\n")
	}

	if hand := m.myHand(); len(hand) > 0 {
		b.WriteString(boxStyle.Render("手牌  " + renderHand(hand)))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	return docStyle.Render(b.String())
}

// renderPlayers 玩家一览：座位、昵称、累计分，行动者高亮
func (m *Model) renderPlayers() string {
	if len(m.st.Players) == 0 {
		return dimStyle.Render("等待玩家加入…… 输入 start ai 可用自动玩家补齐")
	}

	actor := m.st.NextActor()
	rows := make([]string, 0, len(m.st.Players))
	for _, p := range m.st.Players {
		total := 0
		if p.Index < len(m.st.TotalScores) {
			total = m.st.TotalScores[p.Index]
		}
		label := fmt.Sprintf("%d %s (%d)", p.Index, p.Nickname, total)
		switch {
		case p.Index == actor:
			label = activeStyle.Render("▶ " + label)
		case p.Index == m.myIndex:
			label = titleStyle.Render(label)
		default:
			label = dimStyle.Render(label)
		}
		rows = append(rows, label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(rows, "   "))
}

// renderPhase 当前阶段、叫分和主花色
func (m *Model) renderPhase() string {
	parts := []string{dimStyle.Render("阶段: " + string(m.st.Phase))}

	if m.st.CurrentBid > 0 {
		parts = append(parts, fmt.Sprintf("叫分 %d", m.st.CurrentBid))
	}
	if m.st.BidWinner >= 0 {
		parts = append(parts, fmt.Sprintf("胜叫 %d 号", m.st.BidWinner))
	}
	if m.st.Trump != card.SuitHidden {
		parts = append(parts, trumpStyle.Render("主 "+suitSymbols[m.st.Trump]+m.st.Trump.String()))
	}
	if m.st.WentOut {
		parts = append(parts, errorStyle.Render("弃叫"))
	}
	return strings.Join(parts, "  ")
}

// renderTrick 当前一墩
func (m *Model) renderTrick() string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("本墩: "))
	for i, pc := range m.st.CurrentTrick.Cards {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(fmt.Sprintf("%d→%s", pc.Player, renderCard(pc.Card)))
	}
	return b.String()
}
