package card

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Suit 定义花色（施瓦本 Binokel 牌）
type Suit int

// Rank 定义牌面
type Rank int

const (
	SuitHidden Suit = iota - 1 // 隐藏占位牌的花色（仅出现在过滤后的视图中）
	Kreuz                      // 十字
	Schippe                    // 铲子
	Herz                       // 红心
	Bollen                     // 铃铛
)

// 牌力从低到高：Buabe < Ober < König < Zehn < Ass
// 注意 Zehn 大于 König，这是 Binokel 的特色
const (
	RankHidden Rank = iota - 1
	Buabe           // 仆从
	Ober            // 骑士
	Koenig          // 国王
	Zehn            // 十
	Ass             // 爱司
)

// Card 定义一张牌；Copy 区分同花色同点数的两张实体牌
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
	Copy int  `json:"copy"` // 0 或 1
}

// suitNames 花色名称映射表
var suitNames = map[Suit]string{
	Kreuz:   "kreuz",
	Schippe: "schippe",
	Herz:    "herz",
	Bollen:  "bollen",
}

// rankNames 牌面名称映射表
var rankNames = map[Rank]string{
	Buabe:  "buabe",
	Ober:   "ober",
	Koenig: "koenig",
	Zehn:   "zehn",
	Ass:    "ass",
}

// rankPoints 牌面分值映射表（一副牌共 240 分）
var rankPoints = map[Rank]int{
	Buabe:  2,
	Ober:   3,
	Koenig: 4,
	Zehn:   10,
	Ass:    11,
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return "?"
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return "?"
}

// Points 返回这张牌的分值
func (c Card) Points() int {
	return rankPoints[c.Rank]
}

// Hidden 判断这张牌是否是隐藏占位牌
func (c Card) Hidden() bool {
	return c.Suit == SuitHidden || c.Rank == RankHidden
}

// ID 返回这张牌的唯一标识，例如 "schippe-ober-1"
func (c Card) ID() string {
	if c.Hidden() {
		return fmt.Sprintf("hidden-%d", c.Copy)
	}
	return fmt.Sprintf("%s-%s-%d", c.Suit, c.Rank, c.Copy)
}

func (c Card) String() string {
	return c.ID()
}

// HiddenCard 创建一张隐藏占位牌；n 仅用于保持列表位置的稳定性
func HiddenCard(n int) Card {
	return Card{Suit: SuitHidden, Rank: RankHidden, Copy: n}
}

var (
	suitByName = map[string]Suit{
		"kreuz":   Kreuz,
		"schippe": Schippe,
		"herz":    Herz,
		"bollen":  Bollen,
	}
	rankByName = map[string]Rank{
		"buabe":  Buabe,
		"ober":   Ober,
		"koenig": Koenig,
		"zehn":   Zehn,
		"ass":    Ass,
	}
)

// SuitFromName 按名称查找花色
func SuitFromName(name string) (Suit, bool) {
	s, ok := suitByName[name]
	return s, ok
}

// RankFromName 按名称查找牌面
func RankFromName(name string) (Rank, bool) {
	r, ok := rankByName[name]
	return r, ok
}

// FromID 从标识字符串还原一张牌；隐藏标识还原为占位牌
func FromID(id string) (Card, error) {
	if n, ok := strings.CutPrefix(id, "hidden-"); ok {
		copyIdx, err := strconv.Atoi(n)
		if err != nil {
			return Card{}, fmt.Errorf("无法识别的隐藏牌标识: %q", id)
		}
		return HiddenCard(copyIdx), nil
	}

	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return Card{}, fmt.Errorf("无法识别的牌标识: %q", id)
	}
	suit, ok := suitByName[parts[0]]
	if !ok {
		return Card{}, fmt.Errorf("无法识别的花色: %q", parts[0])
	}
	rank, ok := rankByName[parts[1]]
	if !ok {
		return Card{}, fmt.Errorf("无法识别的牌面: %q", parts[1])
	}
	copyIdx, err := strconv.Atoi(parts[2])
	if err != nil || copyIdx < 0 || copyIdx > 1 {
		return Card{}, fmt.Errorf("无法识别的副本编号: %q", parts[2])
	}
	return Card{Suit: suit, Rank: rank, Copy: copyIdx}, nil
}

// Suits 按固定顺序返回四种花色
func Suits() []Suit {
	return []Suit{Kreuz, Schippe, Herz, Bollen}
}

// Ranks 按牌力从低到高返回五种牌面
func Ranks() []Rank {
	return []Rank{Buabe, Ober, Koenig, Zehn, Ass}
}

// Deck 定义一副牌
type Deck []Card

// NewDeck 创建一副 Binokel 牌：4 花色 × 5 牌面 × 2 副本 = 40 张
func NewDeck() Deck {
	deck := make(Deck, 0, 40)
	for _, s := range Suits() {
		for _, r := range Ranks() {
			for copyIdx := 0; copyIdx < 2; copyIdx++ {
				deck = append(deck, Card{Suit: s, Rank: r, Copy: copyIdx})
			}
		}
	}
	return deck
}

func (d Deck) Shuffle() {
	rand.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}

// ShuffleWith 使用指定随机源洗牌（模拟器需要可复现的发牌）
func (d Deck) ShuffleWith(rng *rand.Rand) {
	rng.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}

// HandSize 返回指定人数下每人的手牌数
func HandSize(playerCount int) int {
	switch playerCount {
	case 2:
		return 18
	case 3:
		return 12
	case 4:
		return 9
	default:
		panic(fmt.Sprintf("不支持的玩家人数: %d", playerCount))
	}
}

// DabbSize Dabb（桌中底牌）固定为 4 张
const DabbSize = 4

// Deal 把一副牌分成每人一手牌加 4 张 Dabb
// 牌数不匹配属于编程错误，直接 panic
func Deal(deck Deck, playerCount int) (hands [][]Card, dabb []Card) {
	handSize := HandSize(playerCount)
	if len(deck) != handSize*playerCount+DabbSize {
		panic(fmt.Sprintf("牌数不匹配: %d 张牌无法按 %d 人发", len(deck), playerCount))
	}

	hands = make([][]Card, playerCount)
	for i := range hands {
		hands[i] = make([]Card, 0, handSize)
	}

	// 轮流发牌，最后 4 张作为 Dabb
	for i := 0; i < handSize*playerCount; i++ {
		hands[i%playerCount] = append(hands[i%playerCount], deck[i])
	}
	dabb = append([]Card(nil), deck[handSize*playerCount:]...)
	return hands, dabb
}

// Remove 从一组牌中移除指定的一张，返回新切片和是否找到
func Remove(cards []Card, target Card) ([]Card, bool) {
	for i, c := range cards {
		if c == target {
			out := make([]Card, 0, len(cards)-1)
			out = append(out, cards[:i]...)
			out = append(out, cards[i+1:]...)
			return out, true
		}
	}
	return cards, false
}

// Contains 判断一组牌中是否包含指定的一张
func Contains(cards []Card, target Card) bool {
	for _, c := range cards {
		if c == target {
			return true
		}
	}
	return false
}

// IDs 把一组牌转换为标识列表
func IDs(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID()
	}
	return out
}

// FromIDs 把标识列表还原为一组牌
func FromIDs(ids []string) ([]Card, error) {
	out := make([]Card, len(ids))
	for i, id := range ids {
		c, err := FromID(id)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
