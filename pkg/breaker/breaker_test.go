package breaker

import (
	"testing"
	"time"
)

// fakeClock 可推进的测试时钟
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestBreaker(threshold int, cooldown time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 2, 9, 30, 0, 0, time.Local)}
	b := New(threshold, cooldown)
	b.SetClock(clock.Now)
	return b, clock
}

func TestCircuitBreaker_阈值触发熔断(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	if b.State() != StateClosed {
		t.Fatalf("未达阈值不应打开，当前状态 %s", b.State())
	}

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("连续3次失败后期望 open，得到 %s", b.State())
	}
	if b.FailureCount() != 3 {
		t.Errorf("期望失败计数 3，得到 %d", b.FailureCount())
	}
}

func TestCircuitBreaker_冷却期内拒绝(t *testing.T) {
	b, clock := newTestBreaker(1, time.Minute)

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("期望 open，得到 %s", b.State())
	}

	if b.IsAvailable() {
		t.Error("冷却期内不应放行")
	}

	clock.Advance(59 * time.Second)
	if b.IsAvailable() {
		t.Error("冷却期未满不应放行")
	}

	// 冷却期满：放行且提升为半开
	clock.Advance(time.Second)
	if !b.IsAvailable() {
		t.Error("冷却期满应放行")
	}
	if b.State() != StateHalfOpen {
		t.Errorf("期望 half_open，得到 %s", b.State())
	}
}

func TestCircuitBreaker_半开成功完全复位(t *testing.T) {
	b, clock := newTestBreaker(1, time.Minute)

	b.RecordFailure()
	clock.Advance(time.Minute)
	b.IsAvailable() // 提升为半开

	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Errorf("半开成功后期望 closed，得到 %s", b.State())
	}
	if b.FailureCount() != 0 {
		t.Errorf("半开成功后期望失败计数 0，得到 %d", b.FailureCount())
	}
}

func TestCircuitBreaker_半开失败立即重新打开(t *testing.T) {
	b, clock := newTestBreaker(5, time.Minute)

	// 累计到阈值打开
	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	if b.State() != StateOpen {
		t.Fatalf("期望 open，得到 %s", b.State())
	}

	clock.Advance(time.Minute)
	b.IsAvailable()
	if b.State() != StateHalfOpen {
		t.Fatalf("期望 half_open，得到 %s", b.State())
	}

	// 半开期间单次失败即重新打开，不需要重新累计5次
	b.RecordFailure()
	if b.State() != StateOpen {
		t.Errorf("半开失败后期望 open，得到 %s", b.State())
	}
}

func TestCircuitBreaker_成功清零计数(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	if b.FailureCount() != 0 {
		t.Errorf("成功后期望失败计数 0，得到 %d", b.FailureCount())
	}

	// 清零后需重新累计满阈值才会打开
	b.RecordFailure()
	b.RecordFailure()
	if b.State() != StateClosed {
		t.Errorf("期望 closed，得到 %s", b.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	b, clock := newTestBreaker(1, time.Hour)

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("期望 open，得到 %s", b.State())
	}

	b.Reset()
	if b.State() != StateClosed {
		t.Errorf("Reset 后期望 closed，得到 %s", b.State())
	}
	if b.FailureCount() != 0 {
		t.Errorf("Reset 后期望失败计数 0，得到 %d", b.FailureCount())
	}
	if !b.GetStatus().LastFailure.IsZero() {
		t.Error("Reset 后期望清空最后失败时间")
	}

	// 从半开状态 Reset 同样回到关闭
	b.RecordFailure()
	clock.Advance(time.Hour)
	b.IsAvailable()
	if b.State() != StateHalfOpen {
		t.Fatalf("期望 half_open，得到 %s", b.State())
	}
	b.Reset()
	if b.State() != StateClosed {
		t.Errorf("Reset 后期望 closed，得到 %s", b.State())
	}
}

func TestCircuitBreaker_默认配置(t *testing.T) {
	b := New(0, 0)
	if b.failureThreshold != DefaultFailureThreshold {
		t.Errorf("期望默认阈值 %d，得到 %d", DefaultFailureThreshold, b.failureThreshold)
	}
	if b.cooldown != DefaultCooldown {
		t.Errorf("期望默认冷却 %v，得到 %v", DefaultCooldown, b.cooldown)
	}
}

func TestCircuitBreaker_GetStatus(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute)

	st := b.GetStatus()
	if st.State != "closed" || st.FailureCount != 0 {
		t.Errorf("初始状态快照错误: %+v", st)
	}

	b.RecordFailure()
	b.RecordFailure()
	st = b.GetStatus()
	if st.State != "open" || st.FailureCount != 2 || st.LastFailure.IsZero() {
		t.Errorf("打开状态快照错误: %+v", st)
	}
}
