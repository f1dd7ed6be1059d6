/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package headsup

import "sort"

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Sorted returns copies of players ordered by score, highest first.
// Players with equal scores stay in the order they were added.
func Sorted(players []*Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = *p
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out
}

func IsGameOver(currentPlayerIndex, playerCount int) bool {
	return currentPlayerIndex >= playerCount
}
