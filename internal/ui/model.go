package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/game/rule"
	"github.com/deglerj/dabb-sub000/internal/game/state"
	"github.com/deglerj/dabb-sub000/internal/network/client"
	"github.com/deglerj/dabb-sub000/internal/network/protocol"
	"github.com/deglerj/dabb-sub000/internal/sound"
)

// --- Tea 消息 ---

// serverMsg 包装一条服务端消息
type serverMsg struct {
	msg *protocol.Message
}

// connClosedMsg 连接已关闭
type connClosedMsg struct{}

// connErrMsg 连接失败
type connErrMsg struct {
	err error
}

// Model 终端客户端的 Bubble Tea 模型
// 本地状态完全由服务端下发的过滤事件流折叠而来
type Model struct {
	client *client.Client
	sound  *sound.Manager
	msgCh  chan tea.Msg

	sessionID   string
	nickname    string
	playerCount int

	st      state.GameState
	myIndex int
	lastSeq uint64

	input  textinput.Model
	status string
	closed bool
	width  int
}

// NewModel 创建客户端模型
func NewModel(serverURL, sessionID, nickname string, playerCount int) *Model {
	input := textinput.New()
	input.Placeholder = "指令，例如 bid 160 / play 3 / help"
	input.Focus()
	input.CharLimit = 80

	m := &Model{
		client:      client.NewClient(serverURL),
		sound:       sound.NewManager(),
		msgCh:       make(chan tea.Msg, 256),
		sessionID:   sessionID,
		nickname:    nickname,
		playerCount: playerCount,
		st:          state.New(),
		myIndex:     -1,
		input:       input,
	}

	m.client.OnMessage = func(msg *protocol.Message) {
		m.msgCh <- serverMsg{msg: msg}
	}
	m.client.OnClose = func() {
		m.msgCh <- connClosedMsg{}
	}
	return m
}

// Init 连接服务器并进入会话
func (m *Model) Init() tea.Cmd {
	_ = m.sound.Init()
	return tea.Batch(m.connect, m.listen, textinput.Blink)
}

func (m *Model) connect() tea.Msg {
	if err := m.client.Connect(); err != nil {
		return connErrMsg{err: err}
	}
	m.client.Join(m.sessionID, m.nickname, m.playerCount)
	return nil
}

// listen 等下一条服务端消息
func (m *Model) listen() tea.Msg {
	return <-m.msgCh
}

// Update 处理输入和服务端消息
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case connErrMsg:
		m.status = fmt.Sprintf("连接失败: %v", msg.err)
		return m, nil

	case connClosedMsg:
		m.closed = true
		m.status = "连接已断开"
		return m, nil

	case serverMsg:
		m.handleServer(msg.msg)
		return m, m.listen

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m.quit()
		case tea.KeyEnter:
			cmd := m.runCommand(strings.TrimSpace(m.input.Value()))
			m.input.SetValue("")
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.client.Exit()
	m.client.Close()
	m.sound.Close()
	return m, tea.Quit
}

// handleServer 折叠服务端消息进本地状态
func (m *Model) handleServer(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeGameState:
		payload, err := protocol.ParsePayload[protocol.GameStatePayload](msg)
		if err != nil {
			return
		}
		m.myIndex = payload.PlayerIndex
		m.st = state.Reduce(payload.Events)
		if n := len(payload.Events); n > 0 {
			m.lastSeq = payload.Events[n-1].Sequence
		}

	case protocol.TypeGameEvents:
		payload, err := protocol.ParsePayload[protocol.GameEventsPayload](msg)
		if err != nil {
			return
		}
		for _, evt := range payload.Events {
			m.st = state.Apply(m.st, evt)
			m.lastSeq = evt.Sequence
			m.chime(evt.Type)
		}

	case protocol.TypeSessionTerminated:
		payload, err := protocol.ParsePayload[protocol.SessionTerminatedPayload](msg)
		if err != nil {
			return
		}
		who := fmt.Sprintf("玩家 %d", payload.TerminatedBy)
		if payload.TerminatedBy >= 0 && payload.TerminatedBy < len(m.st.Players) {
			who = m.st.Players[payload.TerminatedBy].Nickname
		}
		m.status = fmt.Sprintf("会话已被 %s 终止，输入 quit 退出", who)

	case protocol.TypeError:
		payload, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			return
		}
		m.status = payload.Message
	}
}

// chime 按事件类型播放音效
func (m *Model) chime(t event.Type) {
	switch t {
	case event.TypeCardsDealt:
		m.sound.Play("deal")
	case event.TypeTrickWon:
		m.sound.Play("trick")
	case event.TypeGameFinished:
		m.sound.Play("win")
	}
}

// myHand 自己的手牌（展示顺序）
func (m *Model) myHand() []card.Card {
	if m.myIndex < 0 || m.myIndex >= len(m.st.Hands) {
		return nil
	}
	return sortedHand(m.st.Hands[m.myIndex])
}

// pickCards 把序号参数换成手牌里的牌
func (m *Model) pickCards(args []string) ([]card.Card, error) {
	hand := m.myHand()
	out := make([]card.Card, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(hand) {
			return nil, fmt.Errorf("无效的牌序号 %q", arg)
		}
		out = append(out, hand[n-1])
	}
	return out, nil
}

// runCommand 解析并发送一条指令
func (m *Model) runCommand(raw string) tea.Cmd {
	if raw == "" {
		return nil
	}
	m.status = ""

	fields := strings.Fields(strings.ToLower(raw))
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "start":
		m.client.Start(len(args) > 0 && args[0] == "ai")

	case "bid":
		if len(args) != 1 {
			m.status = "用法: bid <分数>"
			return nil
		}
		amount, err := strconv.Atoi(args[0])
		if err != nil {
			m.status = "用法: bid <分数>"
			return nil
		}
		m.client.Bid(amount)

	case "pass":
		m.client.Pass()

	case "dabb":
		m.client.TakeDabb()

	case "discard":
		if len(args) != card.DabbSize {
			m.status = fmt.Sprintf("用法: discard <%d 个牌序号>", card.DabbSize)
			return nil
		}
		cards, err := m.pickCards(args)
		if err != nil {
			m.status = err.Error()
			return nil
		}
		m.client.Discard(card.IDs(cards))

	case "goout":
		if len(args) != 1 {
			m.status = "用法: goout <花色>"
			return nil
		}
		m.client.GoOut(args[0])

	case "trump":
		if len(args) != 1 {
			m.status = "用法: trump <花色>"
			return nil
		}
		m.client.DeclareTrump(args[0])

	case "meld":
		// 自动检测并报出手牌里的全部组合
		hand := m.myHand()
		melds := rule.DetectMelds(hand, m.st.Trump)
		m.client.DeclareMelds(event.MeldInfosFrom(melds))

	case "play":
		if len(args) != 1 {
			m.status = "用法: play <牌序号>"
			return nil
		}
		cards, err := m.pickCards(args)
		if err != nil {
			m.status = err.Error()
			return nil
		}
		m.client.PlayCard(cards[0].ID())

	case "sync":
		m.client.Sync(m.lastSeq)

	case "help":
		m.status = "start [ai] | bid N | pass | dabb | discard 1 2 3 4 | goout 花色 | trump 花色 | meld | play N | sync | quit"

	case "quit", "exit":
		_, quitCmd := m.quit()
		return quitCmd

	default:
		m.status = fmt.Sprintf("未知指令 %q，输入 help 查看用法", cmd)
	}
	return nil
}
