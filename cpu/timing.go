package cpu

// Execution times in clock ticks.

// addressing cost of a source or read-only operand, by mode.
var timeAddressingA = [8]int{0, 12, 12, 20, 12, 20, 20, 28}

// addressing cost of a read-modify-write destination, by mode.
var timeAddressingA2 = [8]int{0, 20, 20, 32, 20, 32, 32, 40}

// addressing cost of a JMP or JSR target, by mode. Mode 0 is illegal.
var timeJumpAddressing = [8]int{0, 0, 8, 8, 8, 16, 16, 24}

const (
	timeBase      = 12
	timeBranch    = 16
	timeSOB       = 20
	timeJMP       = 16
	timeJSR       = 32
	timeRTS       = 32
	timeRTI       = 40
	timeTrap      = 68
	timeInterrupt = 68
	timeReset     = 1140
	timeCC        = 12
	timeMARK      = 36
	timeMTPS      = 24
	timeHALT      = 68
	timeWAIT      = 12
	timeFetch     = 12
	timeIdle      = 32
)
