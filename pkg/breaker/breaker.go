package breaker

import (
	"time"
)

// State 熔断器状态
type State int

const (
	// StateClosed 关闭状态，正常放行
	StateClosed State = iota
	// StateOpen 打开状态，冷却期内拒绝调用
	StateOpen
	// StateHalfOpen 半开状态，允许试探调用
	StateHalfOpen
)

// String 返回状态的可读名称
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

const (
	// DefaultFailureThreshold 默认连续失败阈值
	DefaultFailureThreshold = 3
	// DefaultCooldown 默认熔断冷却时间
	DefaultCooldown = 5 * time.Minute
)

// CircuitBreaker 数据源熔断器
// 每个 (市场, 数据源) 对应一个实例，由 DataManager 惰性创建。
//
// 字段读写不加锁：熔断器是尽力而为的降载手段而非一致性机制，
// 并发失败导致的少计一次不影响最终收敛到打开状态。
type CircuitBreaker struct {
	failureThreshold int
	cooldown         time.Duration

	state           State
	failureCount    int
	lastFailureTime time.Time

	now func() time.Time // 测试注入时钟
}

// Status 熔断器状态快照，用于可观测接口
type Status struct {
	State        string    `json:"state"`
	FailureCount int       `json:"failure_count"`
	LastFailure  time.Time `json:"last_failure,omitempty"`
}

// New 创建熔断器。threshold <= 0 或 cooldown <= 0 时使用默认值。
func New(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &CircuitBreaker{
		failureThreshold: threshold,
		cooldown:         cooldown,
		state:            StateClosed,
		now:              time.Now,
	}
}

// IsAvailable 判断当前是否允许调用。
// 打开状态下冷却期已过时，此调用本身会把状态提升为半开；
// 半开状态始终放行，不限制并发试探次数。
func (b *CircuitBreaker) IsAvailable() bool {
	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailureTime) >= b.cooldown {
			b.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess 记录一次成功调用。
// 无条件回到关闭状态并清零失败计数，这是走出打开/半开的唯一途径。
// 上游数据源的故障结束是阶跃式的，恢复后直接完全复位。
func (b *CircuitBreaker) RecordSuccess() {
	b.state = StateClosed
	b.failureCount = 0
}

// RecordFailure 记录一次失败调用。
// 半开状态下的失败立即重新打开，不需要重新累计到阈值，
// 避免仍在故障中的数据源靠缓慢试探把闸门撑开。
func (b *CircuitBreaker) RecordFailure() {
	b.failureCount++
	b.lastFailureTime = b.now()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		return
	}
	if b.failureCount >= b.failureThreshold {
		b.state = StateOpen
	}
}

// Reset 强制复位到关闭状态，管理接口使用。
func (b *CircuitBreaker) Reset() {
	b.state = StateClosed
	b.failureCount = 0
	b.lastFailureTime = time.Time{}
}

// State 返回当前状态
func (b *CircuitBreaker) State() State {
	return b.state
}

// FailureCount 返回当前失败计数
func (b *CircuitBreaker) FailureCount() int {
	return b.failureCount
}

// GetStatus 返回状态快照
func (b *CircuitBreaker) GetStatus() Status {
	return Status{
		State:        b.state.String(),
		FailureCount: b.failureCount,
		LastFailure:  b.lastFailureTime,
	}
}

// SetClock 替换时钟，仅测试使用。
func (b *CircuitBreaker) SetClock(now func() time.Time) {
	b.now = now
}
