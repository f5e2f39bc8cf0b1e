package indicators

import (
	"errors"
	"fmt"
)

var ErrInvalidParameters = errors.New("invalid indicator parameters")

// Parameters configures one snapshot evaluation.
type Parameters struct {
	BollingerPeriod int     `json:"bollinger_period" yaml:"bollinger_period"`
	BollingerStdDev float64 `json:"bollinger_stddev" yaml:"bollinger_stddev"`
	RSIPeriod       int     `json:"rsi_period" yaml:"rsi_period"`
	RSIOverbought   float64 `json:"rsi_overbought" yaml:"rsi_overbought"`
	RSIOversold     float64 `json:"rsi_oversold" yaml:"rsi_oversold"`
	MAFast          int     `json:"ma_fast" yaml:"ma_fast"`
	MASlow          int     `json:"ma_slow" yaml:"ma_slow"`
}

// DefaultParameters returns Bollinger 20/2, RSI 14 (70/30) and MA 20/50.
func DefaultParameters() Parameters {
	return Parameters{
		BollingerPeriod: 20,
		BollingerStdDev: 2,
		RSIPeriod:       14,
		RSIOverbought:   70,
		RSIOversold:     30,
		MAFast:          20,
		MASlow:          50,
	}
}

// Validate rejects parameter sets no evaluation could use.
func (p Parameters) Validate() error {
	switch {
	case p.BollingerPeriod <= 0:
		return invalid("bollinger_period must be positive, got %d", p.BollingerPeriod)
	case p.BollingerStdDev <= 0:
		return invalid("bollinger_stddev must be positive, got %v", p.BollingerStdDev)
	case p.RSIPeriod <= 0:
		return invalid("rsi_period must be positive, got %d", p.RSIPeriod)
	case p.RSIOversold < 0 || p.RSIOversold > 100:
		return invalid("rsi_oversold must be within [0,100], got %v", p.RSIOversold)
	case p.RSIOverbought < 0 || p.RSIOverbought > 100:
		return invalid("rsi_overbought must be within [0,100], got %v", p.RSIOverbought)
	case p.RSIOversold >= p.RSIOverbought:
		return invalid("rsi_oversold (%v) must be below rsi_overbought (%v)", p.RSIOversold, p.RSIOverbought)
	case p.MAFast <= 0 || p.MASlow <= 0:
		return invalid("moving average periods must be positive, got %d/%d", p.MAFast, p.MASlow)
	case p.MAFast >= p.MASlow:
		return invalid("ma_fast (%d) must be below ma_slow (%d)", p.MAFast, p.MASlow)
	}
	return nil
}

// Warmup is the minimum number of candles BuildSnapshot needs.
func (p Parameters) Warmup() int {
	return max(p.BollingerPeriod, p.RSIPeriod+1, p.MAFast, p.MASlow)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameters, fmt.Sprintf(format, args...))
}
