package xretry

// Outcome 单次尝试的分类结果，每次迭代计算一次，不跨调用保存
type Outcome int

const (
	// OutcomeSuccess 状态码 < 400
	OutcomeSuccess Outcome = iota
	// OutcomeRetryable 状态码在 StatusForcelist 中
	OutcomeRetryable
	// OutcomeTerminal 非重试状态码或永久性错误
	OutcomeTerminal
	// OutcomeTransient 超时或网络错误
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	case OutcomeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Classify 对一次尝试的结果分类。err 非 nil 时忽略 resp。
func Classify(p Policy, resp Response, err error) Outcome {
	if err != nil {
		if IsPermanent(err) {
			return OutcomeTerminal
		}
		return OutcomeTransient
	}
	code := resp.StatusCode()
	switch {
	case code < 400:
		return OutcomeSuccess
	case p.Retryable(code):
		return OutcomeRetryable
	default:
		return OutcomeTerminal
	}
}

// State 执行器状态
//
//	Attempting -> Succeeded | FailedTerminal | BackingOff
//	BackingOff -> Attempting
type State int

const (
	StateAttempting State = iota
	StateBackingOff
	StateSucceeded
	StateFailedTerminal
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackingOff:
		return "backing_off"
	case StateSucceeded:
		return "succeeded"
	case StateFailedTerminal:
		return "failed_terminal"
	default:
		return "unknown"
	}
}

// Terminal 报告状态是否为终态
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailedTerminal
}

// next 根据当前状态和尝试结果计算下一状态。
// last 表示本次是最后一次尝试。
func next(s State, o Outcome, last bool) State {
	switch s {
	case StateBackingOff:
		return StateAttempting
	case StateAttempting:
		switch o {
		case OutcomeSuccess:
			return StateSucceeded
		case OutcomeTerminal:
			return StateFailedTerminal
		default:
			if last {
				return StateFailedTerminal
			}
			return StateBackingOff
		}
	default:
		return s
	}
}
