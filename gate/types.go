package gate

// Decision is the per-message gate verdict. It is ephemeral; only its
// resonance sample feeds the persisted history.
type Decision struct {
	Resonance    float64
	Coherence    float64
	Stability    float64
	ShortCircuit bool
}
