package utils

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/subeth/subeth/internal/shared/errors"
)

// ParseAddressParam reads a hex account address from a URL path parameter.
func ParseAddressParam(c *gin.Context, paramName string) (common.Address, error) {
	raw := strings.TrimSpace(c.Param(paramName))
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.NewValidationError("invalid address", raw)
	}
	return common.HexToAddress(raw), nil
}

// ParseChainIDQuery reads the chainId query parameter. A missing value
// returns 0, which callers treat as "no chain".
func ParseChainIDQuery(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.Query("chainId"))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, errors.NewValidationError("invalid chainId", raw)
	}
	return id, nil
}

// ParseUint256 parses a decimal uint256 such as an on-chain subscription id.
func ParseUint256(raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return nil, errors.NewValidationError("invalid uint256", raw)
	}
	return v, nil
}
