package agent

// sweepDead removes every entity flagged not-alive from the world and
// the liveness index. It must run after the tick's queries have
// finished iterating; removing entities mid-query is unsafe.
func (e *Engine) sweepDead(dead []entityRow) {
	for _, row := range dead {
		e.mapper.Remove(row.entity)
		delete(e.liveIndex, row.id)
		e.deaths++
	}
}
