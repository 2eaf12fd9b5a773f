package gpu

import "testing"

func TestInstanceDataAvailable(t *testing.T) {
	transforms := make([]float32, 3*16)
	tests := []struct {
		name   string
		data   InstanceData
		want   int
		colors bool
	}{
		{"no transforms", InstanceData{Count: 3}, 0, false},
		{"bounded by count", InstanceData{Transforms: transforms, Count: 2}, 2, false},
		{"bounded by transforms", InstanceData{Transforms: transforms, Count: 10}, 3, false},
		{"bounded by colors", InstanceData{Transforms: transforms, Colors: make([]float32, 8), Count: 3}, 2, true},
		{"short colors are ignored", InstanceData{Transforms: transforms, Colors: []float32{1, 0}, Count: 3}, 3, false},
		{"empty colors are ignored", InstanceData{Transforms: transforms, Colors: []float32{}, Count: 3}, 3, false},
		{"strided colors", InstanceData{Transforms: transforms, Colors: make([]float32, 2*8+4), ColorStride: 8, Count: 3}, 3, true},
	}
	for _, tc := range tests {
		if got := tc.data.Available(); got != tc.want {
			t.Errorf("%s: Available() = %d, want %d", tc.name, got, tc.want)
		}
		if got := tc.data.HasColors(); got != tc.colors {
			t.Errorf("%s: HasColors() = %v, want %v", tc.name, got, tc.colors)
		}
	}
}
