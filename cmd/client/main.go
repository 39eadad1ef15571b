package main

import (
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/deglerj/dabb-sub000/internal/logger"
	"github.com/deglerj/dabb-sub000/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:1809", "服务器地址")
	sessionID := flag.String("session", "", "会话号（必填，相同会话号的玩家同桌）")
	nickname := flag.String("nickname", "", "昵称，留空随机生成")
	playerCount := flag.Int("players", 4, "每局人数（2/3/4，仅创建会话时生效）")
	flag.Parse()

	if *sessionID == "" {
		log.Fatal("必须用 -session 指定会话号")
	}

	// 标准日志写进文件，终端留给界面
	if err := logger.Init(); err != nil {
		log.Printf("日志初始化失败: %v", err)
	}
	defer logger.Close()

	serverURL := fmt.Sprintf("ws://%s/ws", *serverAddr)
	model := ui.NewModel(serverURL, *sessionID, *nickname, *playerCount)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("启动客户端时出错: %v", err)
	}
}
