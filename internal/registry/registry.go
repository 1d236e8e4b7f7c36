package registry

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

type file struct {
	Chains []model.ChainDescriptor `json:"chains"`
	Tokens []model.SupportedToken  `json:"tokens"`
}

type registry struct {
	chains     map[string]model.ChainDescriptor
	tokens     map[string]model.SupportedToken
	chainOrder []model.ChainDescriptor
	tokenOrder []model.SupportedToken
}

// Load reads the registry file, expanding ${ENV} references so RPC keys stay out of the file.
func Load(path string) (IRegistry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read registry %s", path)
	}

	var f file
	if err := json.Unmarshal([]byte(os.ExpandEnv(string(raw))), &f); err != nil {
		return nil, errors.Wrapf(err, "parse registry %s", path)
	}

	return New(f.Chains, f.Tokens)
}

func New(chains []model.ChainDescriptor, tokens []model.SupportedToken) (IRegistry, error) {
	r := &registry{
		chains: make(map[string]model.ChainDescriptor, len(chains)),
		tokens: make(map[string]model.SupportedToken, len(tokens)),
	}

	for _, c := range chains {
		if c.ChainID == "" {
			return nil, errors.New("chain without chainId")
		}
		if _, dup := r.chains[c.ChainID]; dup {
			return nil, errors.Errorf("duplicate chain %s", c.ChainID)
		}
		r.chains[c.ChainID] = c
		r.chainOrder = append(r.chainOrder, c)
	}

	for _, t := range tokens {
		if t.CoinID == "" {
			return nil, errors.New("token without coinId")
		}
		if _, dup := r.tokens[t.CoinID]; dup {
			return nil, errors.Errorf("duplicate token %s", t.CoinID)
		}
		if _, ok := r.chains[t.ChainID]; !ok {
			return nil, errors.Errorf("token %s references unknown chain %s", t.CoinID, t.ChainID)
		}
		if t.Decimals < 0 || t.Decimals > 77 {
			return nil, errors.Errorf("token %s has invalid decimals %d", t.CoinID, t.Decimals)
		}
		r.tokens[t.CoinID] = t
		r.tokenOrder = append(r.tokenOrder, t)
	}

	return r, nil
}

func (r *registry) LookupToken(coinID string) (model.SupportedToken, bool) {
	t, ok := r.tokens[coinID]
	return t, ok
}

func (r *registry) LookupChain(chainID string) (model.ChainDescriptor, bool) {
	c, ok := r.chains[chainID]
	return c, ok
}

func (r *registry) Tokens() []model.SupportedToken {
	return append([]model.SupportedToken(nil), r.tokenOrder...)
}

func (r *registry) Chains() []model.ChainDescriptor {
	return append([]model.ChainDescriptor(nil), r.chainOrder...)
}
