package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{name: "us national", input: "(650) 253-0000", region: "US", want: "+16502530000"},
		{name: "already e164", input: "+16502530000", region: "US", want: "+16502530000"},
		{name: "default region", input: "650 253 0000", region: "", want: "+16502530000"},
		{name: "garbage kept", input: "  not-a-number ", region: "US", want: "not-a-number"},
		{name: "empty", input: "   ", region: "US", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164(tc.input, tc.region); got != tc.want {
				t.Fatalf("NormalizeE164(%q, %q) = %q, want %q", tc.input, tc.region, got, tc.want)
			}
		})
	}
}

func TestIsE164(t *testing.T) {
	if !IsE164("+16502530000") {
		t.Fatal("expected valid e164")
	}
	if IsE164("6502530000") {
		t.Fatal("expected missing plus to be rejected")
	}
}
