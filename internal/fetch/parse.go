package fetch

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"volScope/internal/model"
)

// ParsePoolID validates a pool address and returns it lowercased, as the subgraph keys it.
// A malformed address is model.ErrNotFound.
func ParsePoolID(input string) (common.Address, string, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, "", fmt.Errorf("invalid pool address %q: %w", input, model.ErrNotFound)
	}
	address := common.HexToAddress(input)
	return address, strings.ToLower(address.Hex()), nil
}
