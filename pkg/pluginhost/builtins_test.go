package pluginhost

import "testing"

func TestBuiltinGainAttenuatesSignal(t *testing.T) {
	r := New()
	gainID, _ := RegisterBuiltins(r)

	inst, err := r.Instantiate(gainID, 0, 48000, 4)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}

	in := [2][]float32{{1, 1, 1, 1}, {1, 1, 1, 1}}
	out := [2][]float32{make([]float32, 4), make([]float32, 4)}
	inst.ProcessBlock(in, out)

	// Default gain is 0dB, so the signal should pass through unchanged.
	for i := range in[0] {
		if out[0][i] != 1 || out[1][i] != 1 {
			t.Fatalf("expected unity gain at %d, got %v", i, out)
		}
	}
}

func TestBuiltinCompressorReducesLoudSignal(t *testing.T) {
	r := New()
	_, compressorID := RegisterBuiltins(r)

	inst, err := r.Instantiate(compressorID, 0, 48000, 64)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}

	in := [2][]float32{make([]float32, 64), make([]float32, 64)}
	for i := range in[0] {
		in[0][i] = 0.99
		in[1][i] = 0.99
	}
	out := [2][]float32{make([]float32, 64), make([]float32, 64)}

	// Drive several blocks so the envelope detector settles past attack.
	for i := 0; i < 20; i++ {
		inst.ProcessBlock(in, out)
	}

	if out[0][len(out[0])-1] >= in[0][0] {
		t.Fatalf("expected compressor to reduce a signal well above threshold, got %v", out[0][len(out[0])-1])
	}
}
