package bytesize

import "testing"

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		input string
		want  ByteSize
	}{
		{"1024", 1024},
		{"0", 0},
		{"512B", 512},
		{"1K", 1000},
		{"1KB", 1000},
		{"1Ki", 1024},
		{"1KiB", 1024},
		{"500Mi", 500 * MiB},
		{"100MB", 100 * MB},
		{"1Gi", GiB},
		{"2GiB", 2 * GiB},
		{"1T", TB},
		{"1Ti", TiB},
		{"1.5Gi", ByteSize(1.5 * float64(GiB))},
		{" 64Mi ", 64 * MiB},
		{"1gi", GiB}, // case-insensitive units
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			if err != nil {
				t.Fatalf("ParseByteSize(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseByteSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseByteSizeInvalid(t *testing.T) {
	for _, input := range []string{"", "  ", "Gi", "12X", "1.2.3Mi", "-5Mi"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseByteSize(input); err == nil {
				t.Errorf("ParseByteSize(%q) succeeded, want error", input)
			}
		})
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	if err := b.UnmarshalText([]byte("256Mi")); err != nil {
		t.Fatalf("UnmarshalText error: %v", err)
	}
	if b != 256*MiB {
		t.Errorf("UnmarshalText = %d, want %d", b, 256*MiB)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		size ByteSize
		want string
	}{
		{512, "512B"},
		{KiB, "1.00KiB"},
		{MiB, "1.00MiB"},
		{GiB, "1.00GiB"},
		{TiB, "1.00TiB"},
	}
	for _, tt := range tests {
		if got := tt.size.String(); got != tt.want {
			t.Errorf("ByteSize(%d).String() = %q, want %q", uint64(tt.size), got, tt.want)
		}
	}
}
