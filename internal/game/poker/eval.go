package poker

import "sort"

// Category is the qualitative tier of a three-card hand. Higher beats
// lower; ties within a category are broken by kicker sequence.
type Category int

// Hand categories, weakest to strongest.
const (
	HighCard Category = iota + 1
	Pair
	Flush
	Straight
	ThreeOfAKind
	StraightFlush
)

var categoryNames = map[Category]string{
	HighCard:      "High Card",
	Pair:          "Pair",
	Flush:         "Flush",
	Straight:      "Straight",
	ThreeOfAKind:  "Three of a Kind",
	StraightFlush: "Straight Flush",
}

// String returns the category's display name.
func (c Category) String() string {
	return categoryNames[c]
}

// multipliers maps the player hand's category to its payout multiplier.
var multipliers = map[Category]int64{
	HighCard:      1,
	Pair:          2,
	Flush:         2,
	Straight:      3,
	ThreeOfAKind:  4,
	StraightFlush: 6,
}

// Multiplier returns the payout multiplier for a winning player hand.
func Multiplier(c Category) int64 {
	return multipliers[c]
}

// Eval is a hand's comparable strength: its category plus the ordered
// tie-break values.
type Eval struct {
	Category Category
	Kickers  []int
}

// Evaluate classifies a three-card hand. A-2-3 counts as a straight and
// ranks below every other straight (the ace plays low, kicker 3-2-1).
func Evaluate(h Hand) Eval {
	vals := []int{h[0].Rank, h[1].Rank, h[2].Rank}
	sort.Sort(sort.Reverse(sort.IntSlice(vals)))

	flush := h[0].Suit == h[1].Suit && h[1].Suit == h[2].Suit
	straight, aceLow := isStraight(vals)

	kickers := append([]int(nil), vals...)
	if aceLow {
		// A-2-3 plays as 3-2-1 so it sits below 4-3-2.
		kickers = []int{3, 2, 1}
	}

	switch {
	case flush && straight:
		return Eval{Category: StraightFlush, Kickers: kickers}
	case vals[0] == vals[2]:
		return Eval{Category: ThreeOfAKind, Kickers: []int{vals[0]}}
	case straight:
		return Eval{Category: Straight, Kickers: kickers}
	case flush:
		return Eval{Category: Flush, Kickers: kickers}
	case vals[0] == vals[1] || vals[1] == vals[2]:
		pair, odd := vals[1], vals[0]
		if vals[0] == vals[1] {
			odd = vals[2]
		}
		return Eval{Category: Pair, Kickers: []int{pair, odd}}
	default:
		return Eval{Category: HighCard, Kickers: kickers}
	}
}

// isStraight reports whether the descending values form three consecutive
// ranks, and whether that straight is the ace-low A-2-3.
func isStraight(desc []int) (straight, aceLow bool) {
	if desc[0]-desc[1] == 1 && desc[1]-desc[2] == 1 {
		return true, false
	}
	if desc[0] == RankAce && desc[1] == 3 && desc[2] == 2 {
		return true, true
	}
	return false, false
}

// Compare orders two evaluations: positive when a beats b, negative when
// b beats a, zero on an exact tie (push). Categories compare first; equal
// categories compare kicker sequences element-wise.
func Compare(a, b Eval) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}
	n := len(a.Kickers)
	if len(b.Kickers) > n {
		n = len(b.Kickers)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(a.Kickers) {
			av = a.Kickers[i]
		}
		if i < len(b.Kickers) {
			bv = b.Kickers[i]
		}
		if av != bv {
			if av > bv {
				return 1
			}
			return -1
		}
	}
	return 0
}
