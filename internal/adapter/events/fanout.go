package events

import domain "nftloan-backend/internal/domain/loan"

// Fanout delivers each event to every sink in order.
type Fanout []domain.Emitter

func (f Fanout) Emit(ev domain.Event) {
	for _, em := range f {
		if em != nil {
			em.Emit(ev)
		}
	}
}
