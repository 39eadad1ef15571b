package server

import (
	"math/rand/v2"
)

// 昵称词库
var (
	adjectives = []string{
		"Flinker", "Schlauer", "Lustiger", "Mutiger", "Stiller",
		"Wilder", "Kluger", "Frecher", "Alter", "Junger",
		"Roter", "Grauer", "Flotter", "Zäher", "Heller",
	}

	nouns = []string{
		"Spatz", "Fuchs", "Dachs", "Igel", "Marder",
		"Bussard", "Hirsch", "Biber", "Falke", "Luchs",
		"Star", "Kauz", "Wiesel", "Rabe", "Otter",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	adj := adjectives[rand.IntN(len(adjectives))]
	noun := nouns[rand.IntN(len(nouns))]
	return adj + " " + noun
}
