package window

import "testing"

func TestWindowOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []WindowBuilderOption
		want windowConfig
	}{
		{
			name: "size",
			opts: []WindowBuilderOption{WithSize(1600, 900)},
			want: windowConfig{width: 1600, height: 900},
		},
		{
			name: "non-positive size keeps defaults",
			opts: []WindowBuilderOption{WithSize(0, -5)},
			want: windowConfig{width: 640, height: 480},
		},
		{
			name: "title and limits",
			opts: []WindowBuilderOption{WithTitle("Flock"), WithSizeLimits(10, 20, 30, 40)},
			want: windowConfig{title: "Flock", width: 640, height: 480, minSize: [2]int{10, 20}, maxSize: [2]int{30, 40}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := windowConfig{width: 640, height: 480}
			for _, opt := range tt.opts {
				opt(&c)
			}
			if c != tt.want {
				t.Errorf("config = %+v, want %+v", c, tt.want)
			}
		})
	}
}
