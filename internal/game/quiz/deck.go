package quiz

import "math/rand/v2"

// Deck 按局抽题：在本局未出过的题目中均匀随机抽取，抽完后重置
type Deck struct {
	questions []Question
	used      []bool
	remaining int
	rng       *rand.Rand
}

// NewDeck 创建题组。rng 为 nil 时使用随机种子
func NewDeck(questions []Question, rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	d := &Deck{
		questions: questions,
		used:      make([]bool, len(questions)),
		rng:       rng,
	}
	d.Reset()
	return d
}

// Reset 清空已出题记录
func (d *Deck) Reset() {
	clear(d.used)
	d.remaining = len(d.questions)
}

// Remaining 本轮循环中尚未出过的题目数
func (d *Deck) Remaining() int {
	return d.remaining
}

// Size 题库总数
func (d *Deck) Size() int {
	return len(d.questions)
}

// Draw 抽一道题。题库为空时返回 false
func (d *Deck) Draw() (Question, bool) {
	if len(d.questions) == 0 {
		return Question{}, false
	}
	if d.remaining == 0 {
		d.Reset()
	}

	// 在未使用的题目中取第 n 个
	n := d.rng.IntN(d.remaining)
	for i, used := range d.used {
		if used {
			continue
		}
		if n == 0 {
			d.used[i] = true
			d.remaining--
			return d.questions[i], true
		}
		n--
	}
	return Question{}, false
}
