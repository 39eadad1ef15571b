package rule

import (
	"github.com/deglerj/dabb-sub000/internal/game/card"
)

// MeldType 定义报牌组合类型
type MeldType string

const (
	MeldPaar          MeldType = "paar"           // 同花色国王+骑士
	MeldFamilie       MeldType = "familie"        // 同花色 A-10-K-O-B
	MeldBinokel       MeldType = "binokel"        // 铲子骑士 + 铃铛仆从
	MeldDoppelBinokel MeldType = "doppel_binokel" // 两套 Binokel
	MeldVier          MeldType = "vier"           // 四花色同牌面各一张
	MeldAcht          MeldType = "acht"           // 四花色同牌面各两张
)

// Meld 定义一个报牌组合
// Suit 仅对 Paar/Familie 有意义，Rank 仅对 Vier/Acht 有意义，
// 其余情况为 -1 哨兵值
type Meld struct {
	Type   MeldType    `json:"type"`
	Suit   card.Suit   `json:"suit"`
	Rank   card.Rank   `json:"rank"`
	Cards  []card.Card `json:"cards"`
	Points int         `json:"points"`
}

// vierPoints 四张组合分值（只有这四种牌面可组）
var vierPoints = map[card.Rank]int{
	card.Ass:    100,
	card.Koenig: 80,
	card.Ober:   60,
	card.Buabe:  40,
}

// achtPoints 八张组合分值
var achtPoints = map[card.Rank]int{
	card.Ass:    1000,
	card.Koenig: 600,
	card.Ober:   400,
	card.Buabe:  200,
}

// DetectMelds 检测一手牌在指定主花色下的最大报牌组合集
//
// 消耗规则：Familie 消耗掉本花色的国王和骑士，剩余的才能再组 Paar；
// Binokel 与 Vier/Acht 不消耗（同一张牌可同时参与）。
// 两套完整 Familie 算两次；Doppel-Binokel 取代两个单 Binokel；
// Acht 取代 Vier
func DetectMelds(hand []card.Card, trump card.Suit) []Meld {
	// 按（花色，牌面）收集实体牌，副本号小的在前，保证消耗顺序确定
	byKey := make(map[card.Suit]map[card.Rank][]card.Card)
	for _, s := range card.Suits() {
		byKey[s] = make(map[card.Rank][]card.Card)
	}
	for _, c := range hand {
		if c.Hidden() {
			continue
		}
		list := byKey[c.Suit][c.Rank]
		if len(list) == 1 && list[0].Copy > c.Copy {
			list = []card.Card{c, list[0]}
		} else {
			list = append(list, c)
		}
		byKey[c.Suit][c.Rank] = list
	}

	var melds []Meld

	// 每个花色的已消耗张数（用于 Familie → Paar 的消耗规则）
	consumed := make(map[card.Suit]int)

	// Familie：一个花色五种牌面各一张
	for _, s := range card.Suits() {
		families := 2
		for _, r := range card.Ranks() {
			if n := len(byKey[s][r]); n < families {
				families = n
			}
		}
		for i := 0; i < families; i++ {
			cards := make([]card.Card, 0, 5)
			for _, r := range card.Ranks() {
				cards = append(cards, byKey[s][r][i])
			}
			points := 100
			if s == trump {
				points = 150
			}
			melds = append(melds, Meld{Type: MeldFamilie, Suit: s, Rank: card.RankHidden, Cards: cards, Points: points})
		}
		consumed[s] = families
	}

	// Paar：Familie 之外剩余的国王+骑士
	for _, s := range card.Suits() {
		koenige := byKey[s][card.Koenig][consumed[s]:]
		obern := byKey[s][card.Ober][consumed[s]:]
		pairs := min(len(koenige), len(obern))
		for i := 0; i < pairs; i++ {
			points := 20
			if s == trump {
				points = 40
			}
			melds = append(melds, Meld{
				Type:   MeldPaar,
				Suit:   s,
				Rank:   card.RankHidden,
				Cards:  []card.Card{koenige[i], obern[i]},
				Points: points,
			})
		}
	}

	// Binokel：铲子骑士 + 铃铛仆从；两套齐全升级为 Doppel-Binokel
	schippeOber := byKey[card.Schippe][card.Ober]
	bollenBuabe := byKey[card.Bollen][card.Buabe]
	switch {
	case len(schippeOber) == 2 && len(bollenBuabe) == 2:
		cards := append(append([]card.Card(nil), schippeOber...), bollenBuabe...)
		melds = append(melds, Meld{Type: MeldDoppelBinokel, Suit: card.SuitHidden, Rank: card.RankHidden, Cards: cards, Points: 300})
	case len(schippeOber) >= 1 && len(bollenBuabe) >= 1:
		melds = append(melds, Meld{
			Type:   MeldBinokel,
			Suit:   card.SuitHidden,
			Rank:   card.RankHidden,
			Cards:  []card.Card{schippeOber[0], bollenBuabe[0]},
			Points: 40,
		})
	}

	// Vier / Acht：四个花色同牌面（只有 A/K/O/B 四种牌面可组）
	for _, r := range []card.Rank{card.Ass, card.Koenig, card.Ober, card.Buabe} {
		minCount := 2
		for _, s := range card.Suits() {
			if n := len(byKey[s][r]); n < minCount {
				minCount = n
			}
		}
		switch minCount {
		case 2:
			cards := make([]card.Card, 0, 8)
			for _, s := range card.Suits() {
				cards = append(cards, byKey[s][r]...)
			}
			melds = append(melds, Meld{Type: MeldAcht, Suit: card.SuitHidden, Rank: r, Cards: cards, Points: achtPoints[r]})
		case 1:
			cards := make([]card.Card, 0, 4)
			for _, s := range card.Suits() {
				cards = append(cards, byKey[s][r][0])
			}
			melds = append(melds, Meld{Type: MeldVier, Suit: card.SuitHidden, Rank: r, Cards: cards, Points: vierPoints[r]})
		}
	}

	return melds
}

// MeldPoints 返回报牌组合集的总分
func MeldPoints(melds []Meld) int {
	sum := 0
	for _, m := range melds {
		sum += m.Points
	}
	return sum
}

// BestMeldSuit 返回让手牌报牌分最高的主花色选择及对应分值
// 分数相同时保持 card.Suits 顺序的第一个（调用方可自行随机打破平手）
func BestMeldSuit(hand []card.Card) (card.Suit, int) {
	best, bestPoints := card.Kreuz, -1
	for _, s := range card.Suits() {
		if p := MeldPoints(DetectMelds(hand, s)); p > bestPoints {
			best, bestPoints = s, p
		}
	}
	return best, bestPoints
}
