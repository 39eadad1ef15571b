package rule

// 叫分规则：起叫固定 150，每次加叫必须是 10 的正整数倍
const (
	OpeningBid   = 150
	BidIncrement = 10
)

// FirstBidder 返回首叫玩家：庄家下一位
func FirstBidder(dealer, playerCount int) int {
	return (dealer + 1) % playerCount
}

// IsValidBid 判断一次叫分是否合法
// currentBid 为 0 表示还没有人叫过分，此时必须叫起叫分 150
func IsValidBid(currentBid, amount int) bool {
	if currentBid == 0 {
		return amount == OpeningBid
	}
	if amount <= currentBid {
		return false
	}
	return (amount-currentBid)%BidIncrement == 0
}

// CanPass 判断玩家当前能否过牌
// 首叫玩家在没有任何叫分之前不能过（必须开叫 150）
func CanPass(currentBid int, playerIdx, firstBidder int) bool {
	if currentBid == 0 && playerIdx == firstBidder {
		return false
	}
	return true
}

// BiddingWinner 在叫分结束后返回胜者；未结束返回 -1
// 结束条件：除一人外全部过牌，且至少有一次叫分
func BiddingWinner(currentBid int, passed []bool) int {
	if currentBid == 0 {
		return -1
	}

	active, winner := 0, -1
	for i, p := range passed {
		if !p {
			active++
			winner = i
		}
	}
	if active != 1 {
		return -1
	}
	return winner
}

// NextBidder 返回下一个尚未过牌的玩家，从 current 的下一位开始找
func NextBidder(current int, passed []bool) int {
	n := len(passed)
	for i := 1; i <= n; i++ {
		idx := (current + i) % n
		if !passed[idx] {
			return idx
		}
	}
	return current
}
