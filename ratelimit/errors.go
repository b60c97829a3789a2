package ratelimit

import (
	"fmt"

	"github.com/openlinkos/agent/agenterr"
)

func newBudgetExceededError(used, requested, max int) error {
	return agenterr.NewRateLimitError(
		fmt.Sprintf("token budget exceeded: %d used + %d requested > %d max", used, requested, max),
		nil, "", nil,
	)
}
