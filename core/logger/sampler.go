package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets n of every d calls through; a zero ratio lets everything through.
type sampler struct {
	ratio atomic.Uint64 // n<<32 | d
	calls atomic.Uint64
}

func newSampler(n, d int) *sampler {
	s := &sampler{}
	s.Set(n, d)
	return s
}

func (s *sampler) Set(n, d int) {
	s.calls.Store(0)
	if n <= 0 || d <= 0 {
		s.ratio.Store(0)
		return
	}
	n = min(n, d)
	s.ratio.Store(uint64(n)<<32 | uint64(uint32(d)))
}

func (s *sampler) Allow() bool {
	r := s.ratio.Load()
	if r == 0 {
		return true
	}
	n, d := r>>32, r&0xffffffff
	return (s.calls.Add(1)-1)%d < n
}

// parseRatio reads "n/d", or "d" meaning one in d.
func parseRatio(spec string) (n, d int, ok bool) {
	num, den, found := strings.Cut(strings.TrimSpace(spec), "/")
	if !found {
		num, den = "1", num
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, 0, false
	}
	d, err = strconv.Atoi(strings.TrimSpace(den))
	if err != nil {
		return 0, 0, false
	}
	return n, d, true
}
