package agent

// agentHash derives a deterministic pseudo-random uint64 from (tick, id,
// seed) using a fixed mixing function (splitmix64-style). Every
// agent-local random decision — tie-breaks, mutation bit flips — comes
// from this, never from a shared stream, so replay is bit-identical
// regardless of iteration order.
func agentHash(tick int64, id uint64, seed uint32) uint64 {
	x := uint64(tick)*0x9E3779B97F4A7C15 ^ id*0xC2B2AE3D27D4EB4F ^ uint64(seed)*0x165667B19E3779F9
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

// agentFloat01 returns a value in [0,1) derived from the same hash.
func agentFloat01(tick int64, id uint64, seed uint32, salt uint64) float32 {
	h := agentHash(tick, id, seed^uint32(salt))
	return float32(h>>40) / float32(1<<24)
}

// mutateSeed flips each bit of seed independently with probability rate,
// using (tick, id, seed) as the entropy source so mutation outcomes are
// reproducible given the same inputs.
func mutateSeed(tick int64, id uint64, seed uint32, rate float32) uint32 {
	if rate <= 0 {
		return seed
	}
	out := seed
	for bit := uint(0); bit < 32; bit++ {
		u := agentFloat01(tick, id, seed, uint64(bit)+1)
		if u < rate {
			out ^= 1 << bit
		}
	}
	return out
}
