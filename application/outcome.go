package application

import "hexarena/domain"

// WipeDamage は全滅したチームのプレイヤーが追加で受けるダメージです。
const WipeDamage = 2

// computeOutcome は盤面に残ったユニットから各プレイヤーが受けるダメージを求めます。
// 各プレイヤーは相手の生存ユニットの星の合計を受け、全滅した側はさらに WipeDamage を受けます。
func computeOutcome(w *World, reason domain.ResolveReason) domain.Outcome {
	var survivors, stars [2]int
	for _, u := range w.units {
		survivors[u.Team]++
		stars[u.Team] += u.Star
	}

	out := domain.Outcome{Reason: reason, Winner: domain.Draw, Survivors: survivors}
	for team := range 2 {
		other := 1 - team
		out.Damage[team] = stars[other]
		if survivors[team] == 0 {
			out.Damage[team] += WipeDamage
		}
	}
	switch {
	case survivors[0] == 0 && survivors[1] > 0:
		out.Winner = int(TeamRed)
	case survivors[1] == 0 && survivors[0] > 0:
		out.Winner = int(TeamBlue)
	}
	return out
}
