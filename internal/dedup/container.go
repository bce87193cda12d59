package dedup

import (
	"fmt"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
)

type DedupContainer struct {
	Store Store
	Guard *Guard
}

func NewDedupContainer(s *config.Settings) (*DedupContainer, error) {
	store, err := BuildStoreFromDSN(s.DedupDSN, s.DedupCapacity)
	if err != nil {
		return nil, fmt.Errorf("build dedup store: %w", err)
	}
	return &DedupContainer{
		Store: store,
		Guard: NewGuard(store),
	}, nil
}
