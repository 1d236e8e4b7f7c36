package quote

import (
	"math/big"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
)

// Ratio is numerator/denominator applied to the input amount, truncating toward zero.
type Ratio struct {
	Num   int64
	Denom int64
}

func (r Ratio) apply(v *big.Int) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(r.Num))
	return out.Quo(out, big.NewInt(r.Denom))
}

var (
	DefaultOutputRatio    = Ratio{Num: 90, Denom: 100}
	DefaultMinOutputRatio = Ratio{Num: 80, Denom: 100}
)

// FixedRatioPricer is a placeholder price source, it ignores market prices entirely.
type FixedRatioPricer struct {
	registry  registry.IRegistry
	output    Ratio
	minOutput Ratio
}

func NewFixedRatio(reg registry.IRegistry, output, minOutput Ratio) (IPricer, error) {
	if output.Denom <= 0 || minOutput.Denom <= 0 || output.Num < 0 || minOutput.Num < 0 {
		return nil, errs.New(errs.KindValidation, "NewFixedRatio", "ratios must be non-negative with a positive denominator")
	}
	// min*outDenom <= out*minDenom keeps min_output <= output for every input
	if minOutput.Num*output.Denom > output.Num*minOutput.Denom {
		return nil, errs.New(errs.KindValidation, "NewFixedRatio", "min output ratio exceeds output ratio")
	}
	return &FixedRatioPricer{registry: reg, output: output, minOutput: minOutput}, nil
}

// NewFromPercent builds the pricer from whole percentages as configured by env.
func NewFromPercent(reg registry.IRegistry, outputPercent, minOutputPercent int64) (IPricer, error) {
	return NewFixedRatio(reg,
		Ratio{Num: outputPercent, Denom: 100},
		Ratio{Num: minOutputPercent, Denom: 100},
	)
}

func (p *FixedRatioPricer) Quote(req Request) (*Quote, error) {
	in, ok := p.registry.LookupToken(req.InputCoinID)
	if !ok {
		return nil, errs.Newf(errs.KindUnsupportedToken, "Quote", "unsupported token pair %s -> %s", req.InputCoinID, req.OutputCoinID)
	}
	out, ok := p.registry.LookupToken(req.OutputCoinID)
	if !ok {
		return nil, errs.Newf(errs.KindUnsupportedToken, "Quote", "unsupported token pair %s -> %s", req.InputCoinID, req.OutputCoinID)
	}
	if req.InputAmount == nil || req.InputAmount.Sign() < 0 {
		return nil, errs.New(errs.KindValidation, "Quote", "input amount must be a non-negative integer")
	}

	output := p.output.apply(req.InputAmount)
	minOutput := p.minOutput.apply(req.InputAmount)

	return &Quote{
		InputToken:      in,
		OutputToken:     out,
		InputAmount:     new(big.Int).Set(req.InputAmount),
		OutputAmount:    output,
		MinOutputAmount: minOutput,
	}, nil
}
