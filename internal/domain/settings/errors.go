package settings

import "errors"

var (
	ErrInvalidBenchmark = errors.New("invalid benchmark range")
	ErrUnknownBenchmark = errors.New("unknown benchmark")
	ErrUnknownRole      = errors.New("unknown role")
	ErrInvalidMember    = errors.New("invalid member")
	ErrInvalidAlias     = errors.New("invalid alias")
	ErrAliasChain       = errors.New("alias chain")
)
