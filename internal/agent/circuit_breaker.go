package agent

// CircuitBreaker считает ошибки подряд и размыкается на пороге. Успех
// обнуляет счётчик. Принадлежит одному прогону, поэтому без блокировок.
type CircuitBreaker struct {
	maxFailures int
	failures    *int
}

func NewCircuitBreaker(maxFailures int, counter *int) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if counter == nil {
		counter = new(int)
	}
	return &CircuitBreaker{maxFailures: maxFailures, failures: counter}
}

// Fail регистрирует ошибку и сообщает, разомкнулся ли выключатель.
func (cb *CircuitBreaker) Fail() bool {
	*cb.failures++
	return cb.Open()
}

func (cb *CircuitBreaker) Succeed() {
	*cb.failures = 0
}

func (cb *CircuitBreaker) Open() bool {
	return *cb.failures >= cb.maxFailures
}

func (cb *CircuitBreaker) Failures() int {
	return *cb.failures
}
