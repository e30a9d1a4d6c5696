package uart

import "fmt"

// ClockDivider computes the integer divider that derives baudRate from
// clockFreq, i.e. the number of clock ticks spanning one bit period.
// It returns an error if the divider truncates to zero or if the baud
// rate realized by the truncated divider deviates from the requested
// one by more than maxErr (fractional, e.g. 0.05 for 5%).
func ClockDivider(clockFreq, baudRate int, maxErr float64) (int, error) {
	if clockFreq <= 0 || baudRate <= 0 {
		return 0, fmt.Errorf("invalid clock %d / baud %d", clockFreq, baudRate)
	}
	div := clockFreq / baudRate
	if div < 1 {
		return 0, fmt.Errorf("baud rate %d exceeds clock frequency %d", baudRate, clockFreq)
	}
	err := (float64(clockFreq)/float64(div) - float64(baudRate)) / float64(baudRate)
	if err > maxErr {
		return 0, fmt.Errorf("clock divider error rate too high (%.3f > %.3f)", err, maxErr)
	}
	return div, nil
}
