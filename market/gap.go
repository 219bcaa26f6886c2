package market

import (
	"sync"
	"time"
)

// GapEvent 表示某股票逐笔序号出现缺号。
type GapEvent struct {
	Symbol           string
	PreviousSerialNo int
	CurrentSerialNo  int
	MissingStart     int
	MissingEnd       int
	TickTime         time.Time // 触发缺号的 tick 时间
	DetectedAt       time.Time // 系统侦测时间
}

// MissingCount 返回缺失的序号笔数。
func (e GapEvent) MissingCount() int {
	return e.MissingEnd - e.MissingStart + 1
}

// gapState 单一股票的序号追踪状态。
type gapState struct {
	mu     sync.Mutex
	last   int
	seeded bool
}

// GapDetector 侦测同一股票序号流中的缺号。
// 各股票独立加锁，不同股票的并发调用互不阻塞。
type GapDetector struct {
	mu     sync.RWMutex
	states map[string]*gapState
	now    func() time.Time
}

// NewGapDetector 创建缺号侦测器。
func NewGapDetector() *GapDetector {
	return &GapDetector{
		states: make(map[string]*gapState),
		now:    time.Now,
	}
}

// TryDetectGap 判断该 tick 是否构成缺号。
// 规则：序号 <=0 忽略；首笔有效序号建立基线；仅在 serialNo > last+1
// 时报缺号；serialNo <= last（重复或乱序）不报也不回退状态。
func (d *GapDetector) TryDetectGap(t Tick) (bool, *GapEvent) {
	key := NormalizeSymbol(t.Symbol)
	if key == "" {
		return false, nil
	}
	if t.SerialNo <= 0 {
		return false, nil
	}

	st := d.state(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.seeded {
		st.last = t.SerialNo
		st.seeded = true
		return false, nil
	}

	if t.SerialNo > st.last+1 {
		ev := &GapEvent{
			Symbol:           key,
			PreviousSerialNo: st.last,
			CurrentSerialNo:  t.SerialNo,
			MissingStart:     st.last + 1,
			MissingEnd:       t.SerialNo - 1,
			TickTime:         t.Time,
			DetectedAt:       d.now(),
		}
		st.last = t.SerialNo
		return true, ev
	}

	if t.SerialNo > st.last {
		st.last = t.SerialNo
	}
	return false, nil
}

// state 取得或建立股票状态，插入是原子的 get-or-create。
func (d *GapDetector) state(key string) *gapState {
	d.mu.RLock()
	st, ok := d.states[key]
	d.mu.RUnlock()
	if ok {
		return st
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok = d.states[key]; ok {
		return st
	}
	st = &gapState{}
	d.states[key] = st
	return st
}
